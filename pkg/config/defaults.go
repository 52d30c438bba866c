package config

import (
	"strings"
	"time"

	"github.com/hobbsbbs/hobbs/internal/bytesize"
	"github.com/hobbsbbs/hobbs/internal/terminal"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyBBSDefaults(&cfg.BBS)
	applyLocaleDefaults(&cfg.Locale)
	applyTerminalDefaults(&cfg.Terminal)
	applyRateLimitDefaults(&cfg.RateLimits)
	cfg.Database.ApplyDefaults()
	cfg.Blob.ApplyDefaults()
	applyFilesDefaults(&cfg.Files)
	applyLogDefaults(&cfg.Log)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 2323
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 64
	}
	if cfg.IdleTimeoutSecs == 0 {
		cfg.IdleTimeoutSecs = 300
	}
	if cfg.GuestTimeoutSecs == 0 {
		cfg.GuestTimeoutSecs = 120
	}
	if cfg.ReadTimeoutSecs == 0 {
		cfg.ReadTimeoutSecs = 30
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
}

func applyBBSDefaults(cfg *BBSConfig) {
	if cfg.Name == "" {
		cfg.Name = "HOBBS"
	}
	if cfg.Description == "" {
		cfg.Description = "a hobbyist bulletin board"
	}
	if cfg.SysOpName == "" {
		cfg.SysOpName = "sysop"
	}
}

func applyLocaleDefaults(cfg *LocaleConfig) {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
}

func applyTerminalDefaults(cfg *TerminalConfig) {
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = terminal.DefaultProfileName
	}
}

func applyRateLimitDefaults(cfg *RateLimitsConfig) {
	if cfg.Mail.Capacity == 0 {
		cfg.Mail.Capacity = 5
	}
	if cfg.Mail.RefillSecs == 0 {
		cfg.Mail.RefillSecs = 60
	}
	if cfg.Post.Capacity == 0 {
		cfg.Post.Capacity = 10
	}
	if cfg.Post.RefillSecs == 0 {
		cfg.Post.RefillSecs = 30
	}
}

func applyFilesDefaults(cfg *FilesConfig) {
	// 256 KiB: generous for a line-oriented upload flow.
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 256 * bytesize.KiB
	}
}

func applyLogDefaults(cfg *LogConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false; the listen address only matters when on.
	if cfg.Listen == "" {
		cfg.Listen = ":9323"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// GetDefaultConfig returns a Config with all default values applied.
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
