package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "monitor.interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidStorageDrivers returns the list of valid durable storage drivers
func ValidStorageDrivers() []string {
	return []string{"file", "sqlite"}
}

// ValidSessionScopes returns the list of valid session storage scopes
func ValidSessionScopes() []string {
	return []string{"runtime", "process"}
}

// ValidMarkdownStyles returns the list of valid glamour styles
func ValidMarkdownStyles() []string {
	return []string{"auto", "dark", "light", "notty"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateMonitor()...)
	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateAgent()...)

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	for field, raw := range map[string]string{
		"api.auth_url":     c.API.AuthURL,
		"api.data_url":     c.API.DataURL,
		"api.analysis_url": c.API.AnalysisURL,
	} {
		if msg := checkBaseURL(raw); msg != "" {
			errors = append(errors, ValidationError{Field: field, Value: raw, Message: msg})
		}
	}
	// map iteration order is random
	slices.SortFunc(errors, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })

	if c.API.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout_seconds",
			Value:   c.API.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

func checkBaseURL(raw string) string {
	if raw == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "must be a valid URL"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "must use http or https"
	}
	if u.Host == "" {
		return "must include a host"
	}
	return ""
}

func (c *Config) validateMonitor() []ValidationError {
	var errors []ValidationError

	const minIntervalMs = 250
	if c.Monitor.IntervalMs < minIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "monitor.interval_ms",
			Value:   c.Monitor.IntervalMs,
			Message: fmt.Sprintf("must be at least %d", minIntervalMs),
		})
	}

	if c.Monitor.TopPortsMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.top_ports_minutes",
			Value:   c.Monitor.TopPortsMinutes,
			Message: "must be positive",
		})
	}

	if c.Monitor.HistoryPoints < 1 || c.Monitor.HistoryPoints > 300 {
		errors = append(errors, ValidationError{
			Field:   "monitor.history_points",
			Value:   c.Monitor.HistoryPoints,
			Message: "must be between 1 and 300",
		})
	}

	if c.Monitor.RecentAttacks < 1 || c.Monitor.RecentAttacks > 100 {
		errors = append(errors, ValidationError{
			Field:   "monitor.recent_attacks",
			Value:   c.Monitor.RecentAttacks,
			Message: "must be between 1 and 100",
		})
	}

	if c.Monitor.LogPageSize < 1 || c.Monitor.LogPageSize > 500 {
		errors = append(errors, ValidationError{
			Field:   "monitor.log_page_size",
			Value:   c.Monitor.LogPageSize,
			Message: "must be between 1 and 500",
		})
	}

	return errors
}

func (c *Config) validateStorage() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidStorageDrivers(), c.Storage.Driver) {
		errors = append(errors, ValidationError{
			Field:   "storage.driver",
			Value:   c.Storage.Driver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStorageDrivers(), ", ")),
		})
	}

	if !slices.Contains(ValidSessionScopes(), c.Storage.SessionScope) {
		errors = append(errors, ValidationError{
			Field:   "storage.session_scope",
			Value:   c.Storage.SessionScope,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidSessionScopes(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	const minSidebarWidth, maxSidebarWidth = 20, 60
	if c.TUI.SidebarWidth < minSidebarWidth || c.TUI.SidebarWidth > maxSidebarWidth {
		errors = append(errors, ValidationError{
			Field:   "tui.sidebar_width",
			Value:   c.TUI.SidebarWidth,
			Message: fmt.Sprintf("must be between %d and %d", minSidebarWidth, maxSidebarWidth),
		})
	}

	if c.TUI.ToastSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.toast_seconds",
			Value:   c.TUI.ToastSeconds,
			Message: "must be positive",
		})
	}

	if !slices.Contains(ValidMarkdownStyles(), c.TUI.MarkdownStyle) {
		errors = append(errors, ValidationError{
			Field:   "tui.markdown_style",
			Value:   c.TUI.MarkdownStyle,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidMarkdownStyles(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateAgent() []ValidationError {
	if strings.TrimSpace(c.Agent.DownloadPath) == "" {
		return []ValidationError{{
			Field:   "agent.download_path",
			Value:   c.Agent.DownloadPath,
			Message: "must not be empty",
		}}
	}
	return nil
}
