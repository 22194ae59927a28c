package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// WATCHDESK_API_AUTH_URL for api.auth_url.
const EnvPrefix = "WATCHDESK"

// Config represents the complete watchdesk configuration
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
}

// APIConfig locates the backend services
type APIConfig struct {
	// AuthURL serves /auth/* (login, mypage, signup, password and withdrawal)
	AuthURL string `mapstructure:"auth_url" yaml:"auth_url"`
	// DataURL serves /api/dashboard/* and /api/agent/download
	DataURL string `mapstructure:"data_url" yaml:"data_url"`
	// AnalysisURL serves /api/analysis/ask
	AnalysisURL string `mapstructure:"analysis_url" yaml:"analysis_url"`
	// TimeoutSeconds bounds each HTTP request
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// MonitorConfig controls dashboard polling
type MonitorConfig struct {
	// IntervalMs is the time between polling rounds (default: 3000)
	IntervalMs int `mapstructure:"interval_ms" yaml:"interval_ms"`
	// SkipOverlapping skips a tick while the previous round is still in flight.
	// When false (default) rounds may overlap.
	SkipOverlapping bool `mapstructure:"skip_overlapping" yaml:"skip_overlapping"`
	// TopPortsMinutes is the window passed to the top-ports endpoint (default: 5)
	TopPortsMinutes int `mapstructure:"top_ports_minutes" yaml:"top_ports_minutes"`
	// HistoryPoints is how many per-second samples the traffic chart keeps (default: 9)
	HistoryPoints int `mapstructure:"history_points" yaml:"history_points"`
	// RecentAttacks is how many attack rows are shown (default: 5)
	RecentAttacks int `mapstructure:"recent_attacks" yaml:"recent_attacks"`
	// LogPageSize is the number of threat log rows fetched per round (default: 20)
	LogPageSize int `mapstructure:"log_page_size" yaml:"log_page_size"`
}

// StorageConfig controls where client state is kept
type StorageConfig struct {
	// Dir is the durable state directory; empty uses StateDir()
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Driver selects the durable backend: "file" or "sqlite"
	Driver string `mapstructure:"driver" yaml:"driver"`
	// SessionScope selects the non-durable backend: "runtime" (cleared when
	// the OS login session ends) or "process" (cleared on exit)
	SessionScope string `mapstructure:"session_scope" yaml:"session_scope"`
	// Watch rehydrates the dashboard when another process changes durable state
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled writes debug.log into the state directory (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the size at which debug.log rotates (default: 5)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated logs kept (default: 2)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// TUIConfig controls the terminal dashboard
type TUIConfig struct {
	// SidebarWidth is the expanded sidebar width in columns (default: 30, min: 20, max: 60)
	SidebarWidth int `mapstructure:"sidebar_width" yaml:"sidebar_width"`
	// ToastSeconds is how long a notification stays on the toast line (default: 3)
	ToastSeconds int `mapstructure:"toast_seconds" yaml:"toast_seconds"`
	// MarkdownStyle is the glamour style for chat answers: "auto", "dark", "light", "notty"
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"`
}

// AgentConfig controls the agent installer download
type AgentConfig struct {
	// DownloadPath is where the installer archive is written
	DownloadPath string `mapstructure:"download_path" yaml:"download_path"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			AuthURL:        "http://localhost:8000",
			DataURL:        "http://localhost:8000",
			AnalysisURL:    "http://localhost:8001",
			TimeoutSeconds: 10,
		},
		Monitor: MonitorConfig{
			IntervalMs:      3000,
			SkipOverlapping: false,
			TopPortsMinutes: 5,
			HistoryPoints:   9,
			RecentAttacks:   5,
			LogPageSize:     20,
		},
		Storage: StorageConfig{
			Dir:          "",
			Driver:       "file",
			SessionScope: "runtime",
			Watch:        true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 2,
		},
		TUI: TUIConfig{
			SidebarWidth:  30,
			ToastSeconds:  3,
			MarkdownStyle: "auto",
		},
		Agent: AgentConfig{
			DownloadPath: "AttackDetectionAgent-Installer.zip",
		},
	}
}

// Interval returns the polling interval as a time.Duration
func (c *MonitorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Timeout returns the request timeout as a time.Duration
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ToastDuration returns the toast lifetime as a time.Duration
func (c *TUIConfig) ToastDuration() time.Duration {
	return time.Duration(c.ToastSeconds) * time.Second
}

// ResolveDir returns the durable state directory, expanding ~.
func (s *StorageConfig) ResolveDir() string {
	if s.Dir == "" {
		return StateDir()
	}
	path := s.Dir
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("api.auth_url", defaults.API.AuthURL)
	viper.SetDefault("api.data_url", defaults.API.DataURL)
	viper.SetDefault("api.analysis_url", defaults.API.AnalysisURL)
	viper.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)

	viper.SetDefault("monitor.interval_ms", defaults.Monitor.IntervalMs)
	viper.SetDefault("monitor.skip_overlapping", defaults.Monitor.SkipOverlapping)
	viper.SetDefault("monitor.top_ports_minutes", defaults.Monitor.TopPortsMinutes)
	viper.SetDefault("monitor.history_points", defaults.Monitor.HistoryPoints)
	viper.SetDefault("monitor.recent_attacks", defaults.Monitor.RecentAttacks)
	viper.SetDefault("monitor.log_page_size", defaults.Monitor.LogPageSize)

	viper.SetDefault("storage.dir", defaults.Storage.Dir)
	viper.SetDefault("storage.driver", defaults.Storage.Driver)
	viper.SetDefault("storage.session_scope", defaults.Storage.SessionScope)
	viper.SetDefault("storage.watch", defaults.Storage.Watch)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("tui.sidebar_width", defaults.TUI.SidebarWidth)
	viper.SetDefault("tui.toast_seconds", defaults.TUI.ToastSeconds)
	viper.SetDefault("tui.markdown_style", defaults.TUI.MarkdownStyle)

	viper.SetDefault("agent.download_path", defaults.Agent.DownloadPath)
}

// legacyEnv maps config keys to the variable names the web frontend's
// dotenv file used, so an existing .env keeps working.
var legacyEnv = map[string]string{
	"api.auth_url": "VITE_API_USERDB_URL",
	"api.data_url": "VITE_API_DATADB_URL",
}

// BindEnv loads a .env file from the working directory (if present) into the
// process environment and configures viper's environment overrides.
// Variables already set in the environment win over the file.
func BindEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := viper.BindEnv(key, envKey, legacy); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded configuration is invalid.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "watchdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".watchdesk"
	}
	return filepath.Join(home, ".config", "watchdesk")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir returns the default durable state directory
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "watchdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".watchdesk", "state")
	}
	return filepath.Join(home, ".local", "state", "watchdesk")
}
