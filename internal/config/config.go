// Package config handles the MELONOTES server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Backend selects the storage implementation.
const (
	BackendSQLite  = "sqlite"
	BackendSurreal = "surreal"
)

// Config is the full server configuration, loaded from TOML with
// environment overrides for secrets.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `toml:"listen"`

	// Backend is "sqlite" or "surreal".
	Backend string `toml:"backend"`

	// UploadsDir is where uploaded images are stored and served from.
	UploadsDir string `toml:"uploads_dir"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	Auth    AuthConfig    `toml:"auth"`
	SQLite  SQLiteConfig  `toml:"sqlite"`
	Surreal SurrealConfig `toml:"surreal"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	// Secret signs bearer tokens. MELONOTES_JWT_SECRET overrides it.
	Secret string `toml:"secret"`

	// TokenTTL is how long tokens stay valid, e.g. "24h".
	TokenTTL duration `toml:"token_ttl"`
}

// SQLiteConfig locates the relational database file.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SurrealConfig carries document-backend connection settings. Username
// and password may come from MELONOTES_SURREAL_USERNAME and
// MELONOTES_SURREAL_PASSWORD instead.
type SurrealConfig struct {
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// TokenTTL returns the configured token lifetime, zero when unset.
func (c *Config) TokenTTL() time.Duration {
	return c.Auth.TokenTTL.Duration
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Listen:     ":5001",
		Backend:    BackendSQLite,
		UploadsDir: "uploads",
		LogLevel:   "info",
		SQLite:     SQLiteConfig{Path: "melonotes.db"},
		Surreal: SurrealConfig{
			URL:       "ws://localhost:8000/rpc",
			Namespace: "melonotes",
			Database:  "melonotes",
		},
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a malformed one is an error. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MELONOTES_JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("MELONOTES_SURREAL_USERNAME"); v != "" {
		cfg.Surreal.Username = v
	}
	if v := os.Getenv("MELONOTES_SURREAL_PASSWORD"); v != "" {
		cfg.Surreal.Password = v
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendSQLite, BackendSurreal:
	default:
		return fmt.Errorf("unknown backend %q (must be %s or %s)", c.Backend, BackendSQLite, BackendSurreal)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required (set [auth] secret or MELONOTES_JWT_SECRET)")
	}
	return nil
}
