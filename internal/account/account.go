// Package account implements the user-facing account flows on top of the
// API client and the session store: login, logout, signup, profile refresh,
// password verification and change, withdrawal and the agent download.
//
// Every flow reports its outcome through the notifier and returns the error
// to the caller; a failed flow never leaves the session half updated.
package account

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/Iron-Ham/watchdesk/internal/api"
	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/logging"
	"github.com/Iron-Ham/watchdesk/internal/notify"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

// Notification texts.
const (
	MsgLoginSuccess    = "Login successful."
	MsgSignupSuccess   = "Sign-up complete. You can now log in."
	MsgPasswordChanged = "Password changed."
	MsgPasswordOK      = "Password verified."
	MsgWithdrawn       = "Your account has been deleted."
	MsgDownloadStarted = "Downloading the agent installer..."
	MsgDownloaded      = "Agent installer saved to "
	MsgAuthenticating  = "Checking credentials..."
	MsgProfileFailed   = "Failed to load your profile."
)

// DefaultInstallerName is the file name the installer is saved under.
const DefaultInstallerName = "AttackDetectionAgent-Installer.zip"

// Options configures a Service.
type Options struct {
	Client   *api.Client
	Session  *appstate.Store
	Durable  storage.Store
	Notifier notify.Notifier
	Logger   *logging.Logger
}

// Service runs the account flows.
type Service struct {
	client   *api.Client
	session  *appstate.Store
	durable  storage.Store
	notifier notify.Notifier
	logger   *logging.Logger

	inflight singleflight.Group
}

// New creates a Service.
func New(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Service{
		client:   opts.Client,
		session:  opts.Session,
		durable:  opts.Durable,
		notifier: opts.Notifier,
		logger:   opts.Logger.WithComponent("account"),
	}
}

func (s *Service) fail(err error) error {
	notify.Error(s.notifier, errors.UserMessage(err))
	return err
}

// Login authenticates, stores the tokens, loads the profile into the session
// store and records the login preferences. Concurrent logins for the same
// employee share one execution.
func (s *Service) Login(ctx context.Context, req LoginRequest) error {
	if err := req.Validate(); err != nil {
		return s.fail(err)
	}
	_, err, _ := s.inflight.Do("login:"+req.EmpNumber, func() (any, error) {
		return nil, s.login(ctx, req)
	})
	return err
}

func (s *Service) login(ctx context.Context, req LoginRequest) error {
	tok, err := s.client.Login(ctx, req.EmpNumber, req.Password)
	if err != nil {
		s.logger.Info("login rejected", "emp_number", req.EmpNumber, "error", err)
		return s.fail(err)
	}

	if err := s.durable.Set(ctx, storage.KeyAccessToken, tok.AccessToken); err != nil {
		return s.fail(errors.NewStorageError("failed to store access token", err).WithKey(storage.KeyAccessToken))
	}
	if tok.RefreshToken != "" {
		if err := s.durable.Set(ctx, storage.KeyRefreshToken, tok.RefreshToken); err != nil {
			s.logger.Warn("failed to store refresh token", "error", err)
		}
	}

	profile, err := s.client.MyPage(ctx)
	if err != nil {
		s.removeTokens(ctx)
		var apiErr *errors.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return s.fail(err)
		}
		notify.Error(s.notifier, MsgProfileFailed)
		return err
	}

	// the flag decides which backend the session snapshot lands in, so it
	// is written before the session store is mutated
	if err := s.durable.Set(ctx, storage.KeyKeepLoggedIn, strconv.FormatBool(req.KeepLoggedIn)); err != nil {
		s.logger.Warn("failed to store keep-session flag", "error", err)
	}

	if err := s.session.Login(userFromProfile(profile)); err != nil {
		s.removeTokens(ctx)
		return s.fail(err)
	}
	s.session.Persist()

	if req.SaveID {
		if err := s.durable.Set(ctx, storage.KeySavedEmployeeID, req.EmpNumber); err != nil {
			s.logger.Warn("failed to store saved employee id", "error", err)
		}
	} else if err := s.durable.Remove(ctx, storage.KeySavedEmployeeID); err != nil {
		s.logger.Warn("failed to clear saved employee id", "error", err)
	}

	s.logger.WithUser(profile.EmpNumber).Info("logged in", "keep_logged_in", req.KeepLoggedIn)
	notify.Success(s.notifier, MsgLoginSuccess)
	return nil
}

func userFromProfile(p api.Profile) *appstate.User {
	return &appstate.User{EmpNumber: p.EmpNumber, Name: p.Name, Email: p.Email, Phone: p.Phone}
}

// Logout tells the server the token is no longer used, removes the stored
// tokens and resets the session. Server errors are logged and ignored.
func (s *Service) Logout(ctx context.Context) {
	if tok, err := s.durable.Get(ctx, storage.KeyAccessToken); err == nil && tok != "" {
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Warn("server logout failed", "error", err)
		}
	}
	s.removeTokens(ctx)
	s.session.Logout()
}

func (s *Service) removeTokens(ctx context.Context) {
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken} {
		if err := s.durable.Remove(ctx, key); err != nil {
			s.logger.Warn("failed to remove token", "key", key, "error", err)
		}
	}
}

// Signup validates form and registers the account. Validation failures
// notify the first problem and return all of them joined.
func (s *Service) Signup(ctx context.Context, form SignupForm) error {
	if problems := form.Validate(); len(problems) > 0 {
		notify.Error(s.notifier, problems[0].Message())
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return errors.Join(errs...)
	}

	err := s.client.Signup(ctx, api.SignupRequest{
		EmpNumber: form.EmpNumber,
		Password:  form.Password,
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
	})
	if err != nil {
		return s.fail(err)
	}
	notify.Success(s.notifier, MsgSignupSuccess)
	return nil
}

// RefreshProfile reloads the profile from the server into the session.
func (s *Service) RefreshProfile(ctx context.Context) (appstate.User, error) {
	p, err := s.client.MyPage(ctx)
	if err != nil {
		return appstate.User{}, err
	}
	s.session.UpdateUser(appstate.UserUpdate{
		EmpNumber: &p.EmpNumber,
		Name:      &p.Name,
		Email:     &p.Email,
		Phone:     &p.Phone,
	})
	return *userFromProfile(p), nil
}

// VerifyPassword checks password against the signed-in account.
func (s *Service) VerifyPassword(ctx context.Context, password string) error {
	if password == "" {
		return s.fail(errors.NewValidationError(MsgPasswordRequired).WithField("password"))
	}
	if err := s.client.VerifyPassword(ctx, password); err != nil {
		return s.fail(err)
	}
	notify.Success(s.notifier, MsgPasswordOK)
	return nil
}

// ChangePassword validates and submits a password change.
func (s *Service) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if err := ValidateNewPassword(current, next, confirm); err != nil {
		return s.fail(err)
	}
	if err := s.client.ChangePassword(ctx, current, next, confirm); err != nil {
		return s.fail(err)
	}
	notify.Success(s.notifier, MsgPasswordChanged)
	return nil
}

// Withdraw deletes the account, then clears the tokens and the session.
func (s *Service) Withdraw(ctx context.Context, password string) error {
	if password == "" {
		return s.fail(errors.NewValidationError(MsgPasswordRequired).WithField("password"))
	}
	if err := s.client.Withdraw(ctx, password); err != nil {
		return s.fail(err)
	}
	s.removeTokens(ctx)
	s.session.Logout()
	notify.Success(s.notifier, MsgWithdrawn)
	return nil
}

// DownloadAgent saves the agent installer to dest with the stored token.
// The file is written atomically; a failed download leaves no partial file.
func (s *Service) DownloadAgent(ctx context.Context, dest string) (int64, error) {
	return s.download(ctx, s.client, dest)
}

// AuthenticateAndDownload checks the credentials without signing in and
// downloads the installer with the token they yield.
func (s *Service) AuthenticateAndDownload(ctx context.Context, empNumber, password, dest string) (int64, error) {
	if err := (LoginRequest{EmpNumber: empNumber, Password: password}).Validate(); err != nil {
		return 0, s.fail(err)
	}
	notify.Loading(s.notifier, MsgAuthenticating)
	tok, err := s.client.Login(ctx, empNumber, password)
	if err != nil {
		return 0, s.fail(err)
	}
	return s.download(ctx, s.client.WithToken(tok.AccessToken), dest)
}

func (s *Service) download(ctx context.Context, client *api.Client, dest string) (int64, error) {
	if strings.TrimSpace(dest) == "" {
		dest = DefaultInstallerName
	}
	notify.Loading(s.notifier, MsgDownloadStarted)

	var buf bytes.Buffer
	n, err := client.DownloadAgent(ctx, &buf)
	if err != nil {
		return 0, s.fail(err)
	}
	if err := storage.WriteFileAtomic(dest, buf.Bytes(), 0o644); err != nil {
		return 0, s.fail(errors.NewStorageError("failed to save installer", err).WithKey(dest))
	}
	s.logger.Info("agent installer downloaded", "path", dest, "bytes", n)
	notify.Success(s.notifier, MsgDownloaded+dest)
	return n, nil
}

// SavedEmployeeID returns the employee number remembered by the last login.
func (s *Service) SavedEmployeeID(ctx context.Context) string {
	id, err := s.durable.Get(ctx, storage.KeySavedEmployeeID)
	if err != nil {
		return ""
	}
	return id
}

// KeepLoggedIn reports the keep-session preference of the last login.
func (s *Service) KeepLoggedIn(ctx context.Context) bool {
	return storage.KeepLoggedIn(ctx, s.durable)
}
