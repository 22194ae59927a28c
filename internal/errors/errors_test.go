package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// APIError Tests
// -----------------------------------------------------------------------------

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
		message   string
	}{
		{"bad request", http.StatusBadRequest, false, "Bad Request"},
		{"unauthorized", http.StatusUnauthorized, false, "Unauthorized"},
		{"too many requests", http.StatusTooManyRequests, true, "Too Many Requests"},
		{"server error", http.StatusBadGateway, true, "Bad Gateway"},
		{"unknown status", 599, true, "HTTP 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError("GET", "/x", tt.status)
			if err.IsRetryable() != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", err.IsRetryable(), tt.retryable)
			}
			if err.message != tt.message {
				t.Errorf("message = %q, want %q", err.message, tt.message)
			}
			if !err.IsUserFacing() {
				t.Error("IsUserFacing() = false, want true")
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "status only",
			err:  NewAPIError("POST", "/auth/login", 400),
			want: "api error [POST /auth/login, status=400]: Bad Request",
		},
		{
			name: "with detail",
			err:  NewAPIError("POST", "/auth/login", 400).WithDetail("wrong password"),
			want: "api error [POST /auth/login, status=400]: wrong password",
		},
		{
			name: "transport",
			err:  NewTransportError("GET", "/auth/mypage", New("connection refused")),
			want: "api error [GET /auth/mypage]: request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	unauthorized := NewAPIError("GET", "/auth/mypage", http.StatusUnauthorized)
	if !Is(unauthorized, ErrUnauthorized) {
		t.Error("401 should match ErrUnauthorized")
	}
	if Is(unauthorized, ErrServerUnavailable) {
		t.Error("401 should not match ErrServerUnavailable")
	}

	if !Is(NewAPIError("GET", "/x", 503), ErrServerUnavailable) {
		t.Error("503 should match ErrServerUnavailable")
	}
	if !Is(NewTransportError("GET", "/x", New("dial")), ErrServerUnavailable) {
		t.Error("transport failure should match ErrServerUnavailable")
	}
	if !Is(NewAPIError("GET", "/x", 403), ErrForbidden) {
		t.Error("403 should match ErrForbidden")
	}

	wrapped := fmt.Errorf("login: %w", unauthorized)
	var apiErr *APIError
	if !As(wrapped, &apiErr) {
		t.Fatal("As should find the APIError")
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

// -----------------------------------------------------------------------------
// StorageError Tests
// -----------------------------------------------------------------------------

func TestStorageError(t *testing.T) {
	cause := New("disk full")
	err := NewStorageError("write failed", cause).WithKey("app-storage").WithBackend("file")

	want := "storage error [backend=file, key=app-storage]: write failed: disk full"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("should unwrap to cause")
	}
	if err.IsUserFacing() {
		t.Error("storage errors should not be user facing")
	}
	if err.WithSeverity(SeverityCritical).Severity() != SeverityCritical {
		t.Error("WithSeverity did not apply")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("employee number is required").WithField("emp_number").WithValue("")

	want := "validation error [field=emp_number, value=]: employee number is required"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Message() != "employee number is required" {
		t.Errorf("Message() = %q", err.Message())
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("validation error should match ErrInvalidInput")
	}
}

func TestLimitError(t *testing.T) {
	err := NewLimitError("favorites", 5)
	if err.Error() != "favorites limit of 5 reached" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !Is(err, ErrLimitReached) {
		t.Error("limit error should match ErrLimitReached")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("route", "nowhere")
	if err.Error() != "route 'nowhere' not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	withCause := NewNotFoundError("route", "nowhere").WithCause(ErrInvalidInput)
	if !Is(withCause, ErrInvalidInput) {
		t.Error("should match cause")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("GET /stats", 10*time.Second)
	if err.Error() != "timeout error: GET /stats (timeout: 10s)" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !Is(err, ErrTimeout) {
		t.Error("should match ErrTimeout")
	}
	if !IsRetryable(err) {
		t.Error("timeouts should be retryable")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestClassificationHelpers(t *testing.T) {
	plain := New("plain")

	if IsRetryable(nil) || IsUserFacing(nil) {
		t.Error("nil error should not classify")
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Error("nil severity should be debug")
	}
	if IsUserFacing(plain) {
		t.Error("plain errors are not user facing")
	}
	if GetSeverity(plain) != SeverityError {
		t.Error("plain severity should default to error")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", ErrTimeout)) {
		t.Error("wrapped ErrTimeout should be retryable")
	}
	if GetSeverity(NewValidationError("x")) != SeverityWarning {
		t.Error("validation severity should be warning")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("Password must be at least 6 characters.").WithField("password"), "Password must be at least 6 characters."},
		{"api detail", NewAPIError("POST", "/auth/login", 401).WithDetail("Invalid credentials"), "Invalid credentials"},
		{"api status", NewAPIError("GET", "/x", 500), "Internal Server Error"},
		{"transport", NewTransportError("GET", "/x", New("dial tcp")), "Could not reach the server."},
		{"limit", NewLimitError("favorites", 5), "favorites limit of 5 reached"},
		{"not authenticated", Wrap(ErrNotAuthenticated, "ask"), "Please log in first."},
		{"internal", NewStorageError("write failed", nil), "An unexpected error occurred."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil || Wrapf(nil, "x %d", 1) != nil {
		t.Error("wrapping nil should return nil")
	}
	err := Wrapf(ErrCanceled, "poll round %d", 3)
	if err.Error() != "poll round 3: operation canceled" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !Is(err, ErrCanceled) {
		t.Error("wrapped error should match")
	}
}
