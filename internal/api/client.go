// Package api is the REST client for the monitoring backend: the auth
// service, the dashboard/data service and the analysis (chat) service.
//
// Every call returns *errors.APIError for non-2xx responses, carrying the
// server's "detail" message when one is present.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/logging"
	"github.com/Iron-Ham/watchdesk/internal/storage"
)

// DefaultTimeout bounds a request when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the user is not signed in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StoreTokenSource reads the access token from durable storage on every call.
type StoreTokenSource struct {
	Store storage.Store
}

// Token implements TokenSource.
func (s StoreTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := s.Store.Get(ctx, storage.KeyAccessToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// StaticToken is a fixed token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Options configures a Client.
type Options struct {
	AuthURL     string
	DataURL     string
	AnalysisURL string
	Timeout     time.Duration
	Tokens      TokenSource
	HTTPClient  *http.Client
	Logger      *logging.Logger
}

// Client talks to the three backend services. It is safe for concurrent use.
type Client struct {
	authURL     string
	dataURL     string
	analysisURL string

	http   *http.Client
	tokens TokenSource
	logger *logging.Logger
	group  *singleflight.Group
}

// New creates a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.Tokens == nil {
		opts.Tokens = StaticToken("")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Client{
		authURL:     strings.TrimRight(opts.AuthURL, "/"),
		dataURL:     strings.TrimRight(opts.DataURL, "/"),
		analysisURL: strings.TrimRight(opts.AnalysisURL, "/"),
		http:        httpClient,
		tokens:      opts.Tokens,
		logger:      opts.Logger.WithComponent("api"),
		group:       &singleflight.Group{},
	}
}

// WithToken returns a client that authenticates with token instead of the
// configured TokenSource.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.tokens = StaticToken(token)
	cp.group = &singleflight.Group{}
	return &cp
}

type authMode int

const (
	authNone authMode = iota
	// authOptional sends the token when one is available.
	authOptional
	authRequired
)

type call struct {
	method string
	base   string
	path   string
	body   any
	auth   authMode
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.base+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if cl.auth != authNone {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read access token")
		}
		if tok == "" && cl.auth == authRequired {
			return nil, errors.ErrNotAuthenticated
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// send performs cl and returns the response for a 2xx status. The caller
// closes the body.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", cl.method, "path", cl.path, "error", err)
		if ctx.Err() == nil && isTimeout(err) {
			return nil, errors.NewTimeoutError(cl.method+" "+cl.path, c.http.Timeout).WithCause(err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewTransportError(cl.method, cl.path, err)
	}
	c.logger.Debug("request completed",
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.NewAPIError(cl.method, cl.path, resp.StatusCode).WithDetail(ExtractDetail(raw))
	}
	return resp, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// do performs cl and decodes the JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.ErrMalformedResponse, "%s %s: %v", cl.method, cl.path, err)
	}
	return nil
}

// get performs an authenticated-as-configured GET. Concurrent identical GETs
// share one request and each caller decodes its own copy of the body.
func (c *Client) get(ctx context.Context, base, path string, auth authMode, out any) error {
	cl := call{method: http.MethodGet, base: base, path: path, auth: auth}

	key := base + path
	if auth != authNone {
		// different tokens must not share a response
		if tok, err := c.tokens.Token(ctx); err == nil {
			key += "\x00" + tok
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		resp, err := c.send(ctx, cl)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return errors.Wrapf(errors.ErrMalformedResponse, "GET %s: %v", path, err)
	}
	return nil
}

// ExtractDetail returns the human readable "detail" of an error body.
// A string detail is returned as is, a list of {"msg": ...} objects is
// joined with ", ", any other detail value is returned as JSON. Bodies
// without a detail yield "".
func ExtractDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, ", ")
	}

	if string(envelope.Detail) == "null" {
		return ""
	}
	return string(envelope.Detail)
}
