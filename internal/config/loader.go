package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TIIS_"

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (TIIS_SERVER_PORT, TIIS_OPENAI_API_KEY, ...)
//  2. YAML config file (path given by the caller; skipped when empty or
//     absent)
//  3. Hardcoded defaults
//
// Environment variables map to config keys by stripping the TIIS_ prefix,
// lowercasing, and splitting on the first underscore:
//
//	TIIS_SERVER_PORT            -> server.port
//	TIIS_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
//	TIIS_STORAGE_ROOT           -> storage.root
//	TIIS_OPENAI_API_KEY         -> openai.api_key
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// TIIS_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout:
		// split on the first underscore only, keep the rest of the
		// field name intact.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
