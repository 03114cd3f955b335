// Package config provides configuration loading for tiisd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables, with hardcoded defaults filling the rest.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/telemetry"
)

// Config holds the complete tiisd configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Storage   StorageConfig    `koanf:"storage"`
	OpenAI    OpenAIConfig     `koanf:"openai"`
	Logging   LoggingConfig    `koanf:"logging"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig holds the document and attachment store configuration.
type StorageConfig struct {
	Root string `koanf:"root"`
}

// OpenAIConfig holds the model-calling collaborator configuration.
type OpenAIConfig struct {
	APIKey  Secret `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults fills zero values with defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "./data"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "tiisd"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Storage.Root == "" {
		return errors.New("storage root must not be empty")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}
