// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// LoaderOptions configures the configuration loader.
type LoaderOptions struct {
	// Path to the TOML config file.
	Path string
	// DotEnvPath, if non-empty, is loaded into the process environment
	// before the TOML file is read and env-substituted (dev convenience,
	// mirrors cmd/test-server's use of godotenv).
	DotEnvPath string
	// SkipEnvSubstitution disables ${VAR:default} expansion.
	SkipEnvSubstitution bool
}

// DefaultLoaderOptions returns the default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{Path: "config.toml"}
}

// Load reads and parses the TOML config file, applying defaults and
// ${VAR:default} environment substitution (spec.md §6).
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	if options.DotEnvPath != "" {
		_ = godotenv.Load(options.DotEnvPath)
	}

	raw, err := os.ReadFile(options.Path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", options.Path, err)
	}

	text := string(raw)
	if !options.SkipEnvSubstitution {
		text = SubstituteEnvVars(text)
	}

	cfg := Defaults()
	if err := toml.Unmarshal([]byte(text), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", options.Path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad loads configuration or panics on error, for use at process
// startup before a logger exists to report the failure through.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks the loaded configuration for the minimum viable set of
// required fields; a ConfigError here is fatal at startup (spec.md §7).
func Validate(cfg *Config) error {
	if cfg.MediatorDID == "" {
		return fmt.Errorf("config: mediator_did is required")
	}
	if cfg.MediatorSecrets == "" {
		return fmt.Errorf("config: mediator_secrets is required")
	}
	if cfg.MediatorKeyID == "" {
		return fmt.Errorf("config: mediator_key_id is required")
	}
	if cfg.Security.JWTAuthorizationSecret == "" {
		return fmt.Errorf("config: security.jwt_authorization_secret is required")
	}
	if cfg.Database.MaxMessageSize <= 0 {
		return fmt.Errorf("config: database.max_message_size must be positive")
	}
	if cfg.Database.MaxQueuedMessages <= 0 {
		return fmt.Errorf("config: database.max_queued_messages must be positive")
	}
	return nil
}
