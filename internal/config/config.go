// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	Addr            string        `env:"CARBON_ADDR"             envDefault:":8080"`
	Store           string        `env:"CARBON_STORE"            envDefault:"sqlite"`
	SQLitePath      string        `env:"CARBON_SQLITE_PATH"      envDefault:"carbon.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	PasswordPolicy  string        `env:"CARBON_PASSWORD_POLICY"  envDefault:"plaintext"`
	LogLevel        string        `env:"CARBON_LOG_LEVEL"        envDefault:"info"`
	AuthRatePerMin  int           `env:"CARBON_AUTH_RATE_PER_MIN" envDefault:"30"`
	ShutdownTimeout time.Duration `env:"CARBON_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CARBON_STORE=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("CARBON_STORE must be one of memory, sqlite, postgres; got %q", c.Store)
	}
	switch c.PasswordPolicy {
	case "plaintext", "bcrypt":
	default:
		return fmt.Errorf("CARBON_PASSWORD_POLICY must be plaintext or bcrypt; got %q", c.PasswordPolicy)
	}
	if c.AuthRatePerMin <= 0 {
		return fmt.Errorf("CARBON_AUTH_RATE_PER_MIN must be positive")
	}
	return nil
}
