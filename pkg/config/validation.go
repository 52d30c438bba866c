package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/hobbsbbs/hobbs/internal/i18n"
	"github.com/hobbsbbs/hobbs/internal/terminal"
)

// Validate checks the configuration for errors. Call after
// ApplyDefaults so that normalized values are validated.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := cfg.Blob.Validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}

	if _, err := terminal.Lookup(cfg.Terminal.DefaultProfile); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}

	if _, err := i18n.Load(cfg.Locale.Language); err != nil {
		return fmt.Errorf("locale: %w", err)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("metrics: listen address is required when metrics are enabled")
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry: endpoint is required when telemetry is enabled")
	}

	return nil
}
