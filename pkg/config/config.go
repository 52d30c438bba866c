// Package config loads and validates the HOBBS configuration from a
// YAML file, HOBBS_* environment variables and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hobbsbbs/hobbs/internal/bytesize"
	"github.com/hobbsbbs/hobbs/pkg/blob"
	"github.com/hobbsbbs/hobbs/pkg/store"
)

// Config is the full HOBBS configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (HOBBS_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Server configures the telnet listener and session timeouts.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// BBS holds the banner variables shown on the welcome screen.
	BBS BBSConfig `mapstructure:"bbs" yaml:"bbs"`

	// Locale selects the default i18n catalog for new sessions.
	Locale LocaleConfig `mapstructure:"locale" yaml:"locale"`

	// Terminal selects the default terminal profile.
	Terminal TerminalConfig `mapstructure:"terminal" yaml:"terminal"`

	// RateLimits gates mail sending and post creation per user.
	RateLimits RateLimitsConfig `mapstructure:"rate_limits" yaml:"rate_limits"`

	// Database configures the persistent store (SQLite or PostgreSQL).
	Database store.Config `mapstructure:"database" yaml:"database"`

	// Blob configures file-area payload storage.
	Blob blob.Config `mapstructure:"blob" yaml:"blob"`

	// Files bounds the file area.
	Files FilesConfig `mapstructure:"files" yaml:"files"`

	// Log controls log output behavior.
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Metrics configures the ops HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls optional tracing and profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ServerConfig configures the telnet listener.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the telnet port. The classic telnet port 23 needs root;
	// the default stays above 1024.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`

	// MaxConnections caps concurrently served sessions; connections
	// beyond the cap wait in the accept queue.
	MaxConnections int `mapstructure:"max_connections" validate:"required,gt=0" yaml:"max_connections"`

	// IdleTimeoutSecs is the per-read deadline for authenticated users.
	IdleTimeoutSecs int `mapstructure:"idle_timeout_secs" validate:"required,gt=0" yaml:"idle_timeout_secs"`

	// GuestTimeoutSecs is the per-read deadline for guests.
	GuestTimeoutSecs int `mapstructure:"guest_timeout_secs" validate:"required,gt=0" yaml:"guest_timeout_secs"`

	// ReadTimeoutSecs is the per-read deadline before authentication.
	ReadTimeoutSecs int `mapstructure:"read_timeout_secs" validate:"required,gt=0" yaml:"read_timeout_secs"`

	// ShutdownTimeout bounds the graceful-shutdown drain.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Timezone is the IANA zone used when rendering timestamps.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// IdleTimeout returns the authenticated per-read deadline.
func (c ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSecs) * time.Second
}

// GuestTimeout returns the guest per-read deadline.
func (c ServerConfig) GuestTimeout() time.Duration {
	return time.Duration(c.GuestTimeoutSecs) * time.Second
}

// ReadTimeout returns the pre-auth per-read deadline.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

// Location resolves the configured timezone, UTC on failure.
func (c ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BBSConfig holds the banner variables.
type BBSConfig struct {
	Name        string `mapstructure:"name" validate:"required" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	SysOpName   string `mapstructure:"sysop_name" yaml:"sysop_name,omitempty"`
}

// LocaleConfig selects the default language.
type LocaleConfig struct {
	// Language is the catalog code for new sessions ("en", "ja").
	Language string `mapstructure:"language" yaml:"language"`
}

// TerminalConfig selects the default terminal profile.
type TerminalConfig struct {
	DefaultProfile string `mapstructure:"default_profile" yaml:"default_profile"`
}

// RateLimitConfig is one token-bucket gate.
type RateLimitConfig struct {
	// Capacity is the burst size.
	Capacity int `mapstructure:"capacity" validate:"omitempty,gt=0" yaml:"capacity"`

	// RefillSecs is the seconds per regained token.
	RefillSecs int `mapstructure:"refill_secs" validate:"omitempty,gt=0" yaml:"refill_secs"`
}

// Refill returns the token refill interval.
func (c RateLimitConfig) Refill() time.Duration {
	return time.Duration(c.RefillSecs) * time.Second
}

// RateLimitsConfig bundles the per-action gates.
type RateLimitsConfig struct {
	Mail RateLimitConfig `mapstructure:"mail" yaml:"mail"`
	Post RateLimitConfig `mapstructure:"post" yaml:"post"`
}

// FilesConfig bounds the file area.
type FilesConfig struct {
	// MaxUploadSize caps a single upload. Human-readable sizes like
	// "256KB" or "1Mi" are accepted.
	MaxUploadSize bytesize.ByteSize `mapstructure:"max_upload_size" yaml:"max_upload_size,omitempty"`
}

// LogConfig controls logging behavior.
type LogConfig struct {
	// Level is the minimum log level.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr" or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the ops HTTP endpoint (health + Prometheus).
type MetricsConfig struct {
	// Enabled turns the endpoint and all instruments on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the ops bind address, e.g. ":9323".
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`
}

// TelemetryConfig controls OTLP tracing and Pyroscope profiling.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure,omitempty"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate,omitempty"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling,omitempty"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses the default
//     location; a missing file falls back to defaults)
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the
// config file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  hobbs init\n\n"+
				"Or specify a custom config file:\n"+
				"  hobbs <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  hobbs init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML. Mode 0600: the database
// section can carry credentials.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment variables and config file search.
func setupViper(v *viper.Viper, configPath string) {
	// HOBBS_SERVER_PORT=2323 overrides server.port, and so on.
	v.SetEnvPrefix("HOBBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the custom type hooks: human-readable
// byte sizes and durations.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize,
// so config files can say "256KB" or "1Mi".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" or "5m" to
// time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path. Uses
// XDG_CONFIG_HOME if set, otherwise ~/.config, with the current
// directory as the last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hobbs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "hobbs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks for a config file at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for
// the init command).
func GetConfigDir() string {
	return getConfigDir()
}
