// Package testutil provides a fake monitoring backend for watchdesk tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Iron-Ham/watchdesk/internal/api"
)

// Account is a user known to the fake backend.
type Account struct {
	Password string
	Profile  api.Profile
}

// Failure makes a route answer with a fixed status and detail.
type Failure struct {
	Status int
	// Detail is sent as {"detail": Detail}; a string, a list or an object.
	Detail any
}

// FakeAPI is an in-memory implementation of the auth, dashboard, analysis
// and agent endpoints served over httptest.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts map[string]*Account
	tokens   map[string]string
	failures map[string]Failure
	delays   map[string]time.Duration
	hits     map[string]int
	lastBody map[string]json.RawMessage

	Stats      api.TrafficStats
	OverTime   api.TrafficOverTime
	Ports      []api.PortCount
	AttackList api.Attacks
	LogSummary api.LogStats
	LogCount   int64
	Logs       []api.ThreatLog
	Agent      []byte
	// Answer computes the chat answer; nil echoes the question.
	Answer func(question string) string
}

// NewFakeAPI starts a fake backend that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		accounts: make(map[string]*Account),
		tokens:   make(map[string]string),
		failures: make(map[string]Failure),
		delays:   make(map[string]time.Duration),
		hits:     make(map[string]int),
		lastBody: make(map[string]json.RawMessage),
		Agent:    []byte("PK\x03\x04fake-installer"),
	}
	f.Server = httptest.NewServer(f.router())
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL of every service.
func (f *FakeAPI) URL() string { return f.Server.URL }

// Client returns an api.Client pointed at the fake with the given tokens.
func (f *FakeAPI) Client(tokens api.TokenSource) *api.Client {
	return api.New(api.Options{
		AuthURL:     f.URL(),
		DataURL:     f.URL(),
		AnalysisURL: f.URL(),
		Timeout:     5 * time.Second,
		Tokens:      tokens,
	})
}

// AddAccount registers an account.
func (f *FakeAPI) AddAccount(password string, p api.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[p.EmpNumber] = &Account{Password: password, Profile: p}
}

// Account returns the registered account for emp.
func (f *FakeAPI) Account(emp string) (Account, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[emp]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// IssueToken creates a valid token for emp without a login round trip.
func (f *FakeAPI) IssueToken(emp string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := uuid.NewString()
	f.tokens[tok] = emp
	return tok
}

// Fail makes "METHOD /path" answer with failure until Recover is called.
func (f *FakeAPI) Fail(route string, failure Failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = failure
}

// Recover removes a failure set with Fail.
func (f *FakeAPI) Recover(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, route)
}

// Delay makes "METHOD /path" sleep before answering.
func (f *FakeAPI) Delay(route string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[route] = d
}

// Hits returns how many requests "METHOD /path" received.
func (f *FakeAPI) Hits(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

// LastBody returns the last JSON body sent to "METHOD /path".
func (f *FakeAPI) LastBody(route string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody[route]
}

// Set updates dashboard fixtures under the fake's lock.
func (f *FakeAPI) Set(fn func(*FakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *FakeAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.intercept)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", f.login)
		r.Post("/signup", f.signup)
		r.Group(func(r chi.Router) {
			r.Use(f.bearer)
			r.Get("/mypage", f.mypage)
			r.Post("/logout", f.ok)
			r.Put("/change-password", f.changePassword)
			r.Post("/verify-password", f.verifyPassword)
			r.Delete("/withdrawal", f.withdraw)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/analysis/ask", f.ask)
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/traffic/stats", f.fixture(func() any { return f.Stats }))
			r.Get("/traffic/traffic-over-time", f.fixture(func() any { return f.OverTime }))
			r.Get("/traffic/top-ports", f.fixture(func() any { return nonNil(f.Ports) }))
			r.Get("/traffic/attacks", f.fixture(func() any { return f.AttackList }))
			r.Get("/logs/stats", f.fixture(func() any { return f.LogSummary }))
			r.Get("/logs/count-24h", f.fixture(func() any { return map[string]int64{"log_count_24h": f.LogCount} }))
			r.Get("/logs/list", f.fixture(func() any { return nonNil(f.Logs) }))
		})
		r.With(f.bearer).Get("/agent/download", f.download)
	})
	return r
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type (
	bodyKey struct{}
	empKey  struct{}
)

func contextWithBody(r *http.Request, body json.RawMessage) context.Context {
	return context.WithValue(r.Context(), bodyKey{}, body)
}

func contextWithEmp(r *http.Request, emp string) context.Context {
	return context.WithValue(r.Context(), empKey{}, emp)
}

func empFrom(r *http.Request) string {
	emp, _ := r.Context().Value(empKey{}).(string)
	return emp
}

// decodeBody decodes the body captured by intercept into v, answering 422
// the way the backend's validator does when it is missing or malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, _ := r.Context().Value(bodyKey{}).(json.RawMessage)
	if len(body) == 0 || json.Unmarshal(body, v) != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}},
		})
		return false
	}
	return true
}

// intercept counts hits, records bodies and applies delays and failures.
func (f *FakeAPI) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		var body json.RawMessage
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		f.mu.Lock()
		f.hits[route]++
		if body != nil {
			f.lastBody[route] = body
		}
		failure, failing := f.failures[route]
		delay := f.delays[route]
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, failure.Status, map[string]any{"detail": failure.Detail})
			return
		}

		r = r.WithContext(contextWithBody(r, body))
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		emp, ok := f.tokens[tok]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithEmp(r, emp)))
	})
}

func (f *FakeAPI) fixture(get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		v := get()
		raw, err := json.Marshal(v)
		f.mu.Unlock()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmpNumber string `json:"emp_number"`
		Password  string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	f.mu.Lock()
	acct, ok := f.accounts[req.EmpNumber]
	if !ok || acct.Password != req.Password {
		f.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect employee number or password"})
		return
	}
	tok := uuid.NewString()
	f.tokens[tok] = req.EmpNumber
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, api.Token{AccessToken: tok, RefreshToken: "refresh-" + tok, TokenType: "bearer"})
}

func (f *FakeAPI) signup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[req.EmpNumber]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Employee number already registered"})
		return
	}
	f.accounts[req.EmpNumber] = &Account{
		Password: req.Password,
		Profile:  api.Profile{EmpNumber: req.EmpNumber, Name: req.Name, Email: req.Email, Phone: req.Phone},
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "created"})
}

func (f *FakeAPI) mypage(w http.ResponseWriter, r *http.Request) {
	emp := empFrom(r)
	f.mu.Lock()
	acct, ok := f.accounts[emp]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, acct.Profile)
}

func (f *FakeAPI) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := f.accounts[empFrom(r)]
	if acct == nil || acct.Password != req.CurrentPassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Current password is incorrect"})
		return
	}
	acct.Password = req.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (f *FakeAPI) verifyPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	f.mu.Lock()
	acct := f.accounts[empFrom(r)]
	f.mu.Unlock()
	if acct == nil || acct.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Password does not match"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (f *FakeAPI) withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	emp := empFrom(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := f.accounts[emp]
	if acct == nil || acct.Password != req.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Password does not match"})
		return
	}
	delete(f.accounts, emp)
	for tok, owner := range f.tokens {
		if owner == emp {
			delete(f.tokens, tok)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (f *FakeAPI) ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	f.mu.Lock()
	answer := f.Answer
	f.mu.Unlock()

	text := "echo: " + req.Question
	if answer != nil {
		text = answer(req.Question)
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": text})
}

func (f *FakeAPI) download(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	payload := append([]byte(nil), f.Agent...)
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="AttackDetectionAgent-Installer.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (f *FakeAPI) ok(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
