package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/watchdesk/internal/account"
	"github.com/Iron-Ham/watchdesk/internal/api"
	"github.com/Iron-Ham/watchdesk/internal/appstate"
	"github.com/Iron-Ham/watchdesk/internal/config"
	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/event"
	"github.com/Iron-Ham/watchdesk/internal/favorites"
	"github.com/Iron-Ham/watchdesk/internal/logging"
	"github.com/Iron-Ham/watchdesk/internal/notify"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

// app is the set of stores and services one command invocation works with.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	bus      *event.Bus
	notifier notify.Notifier
	backends *storage.Backends

	session   *appstate.Store
	favorites *favorites.Store
	client    *api.Client
	account   *account.Service
}

// appOptions tunes newApp for a command.
type appOptions struct {
	// interactive routes notifications through the event bus for the
	// dashboard instead of printing them.
	interactive bool
}

// newApp loads the configuration, opens storage and hydrates the stores.
func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	stateDir := cfg.Storage.ResolveDir()
	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(stateDir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, errors.Wrap(err, "opening debug log")
		}
	}
	logger = logger.With("command", cmd.CommandPath())

	backends, err := storage.Open(storage.Options{
		Dir:          filepath.Join(stateDir, "store"),
		Driver:       cfg.Storage.Driver,
		SessionScope: cfg.Storage.SessionScope,
	})
	if err != nil {
		_ = logger.Close()
		return nil, errors.Wrap(err, "opening storage")
	}

	bus := event.NewBus(logger)
	var notifier notify.Notifier = notify.NewWriterNotifier(cmd.ErrOrStderr())
	if opts.interactive {
		notifier = notify.BusNotifier{Bus: bus}
	}

	session := appstate.New(appstate.Options{
		Provider: backends.Provider(),
		Durable:  backends.Durable,
		Notifier: notifier,
		Logger:   logger,
		Bus:      bus,
	})
	favs := favorites.New(favorites.Options{
		Durable:  backends.Durable,
		Notifier: notifier,
		Logger:   logger,
		Bus:      bus,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	session.Hydrate(ctx)
	favs.Hydrate(ctx)

	client := api.New(api.Options{
		AuthURL:     cfg.API.AuthURL,
		DataURL:     cfg.API.DataURL,
		AnalysisURL: cfg.API.AnalysisURL,
		Timeout:     cfg.API.Timeout(),
		Tokens:      api.StoreTokenSource{Store: backends.Durable},
		Logger:      logger,
	})

	svc := account.New(account.Options{
		Client:   client,
		Session:  session,
		Durable:  backends.Durable,
		Notifier: notifier,
		Logger:   logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		bus:       bus,
		notifier:  notifier,
		backends:  backends,
		session:   session,
		favorites: favs,
		client:    client,
		account:   svc,
	}, nil
}

// close releases storage and the log file.
func (a *app) close() {
	if err := a.backends.Close(); err != nil {
		a.logger.Warn("closing storage", "error", err)
	}
	_ = a.logger.Close()
}

// requireLogin fails with a user-facing error when nobody is signed in.
func (a *app) requireLogin() error {
	if !a.session.Snapshot().IsLoggedIn {
		return userError(errors.ErrNotAuthenticated)
	}
	return nil
}

// withApp adapts a RunE that needs an app.
func withApp(opts appOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a, args)
	}
}

// userError turns err into the message a person should see.
func userError(err error) error {
	if err == nil || isReported(err) {
		return err
	}
	return errors.New(errors.UserMessage(err))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
