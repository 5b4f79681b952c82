// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML file,
// then SCOREBOARD_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// DBPath is the SQLite file backing the leaderboard. Created if absent.
	DBPath string `koanf:"db_path"`
	// MaxOpenConns bounds the store connection pool.
	MaxOpenConns int `koanf:"max_open_conns"`
	// AcquireTimeoutMS caps how long a caller waits for a pooled connection.
	AcquireTimeoutMS int `koanf:"acquire_timeout_ms"`
	// BusyTimeoutMS is handed to SQLite as busy_timeout for lock contention.
	BusyTimeoutMS int `koanf:"busy_timeout_ms"`
	// DefaultLimit is the number of distinct scores returned when the caller
	// does not pass one.
	DefaultLimit int `koanf:"default_limit"`
	// MaxLeaderboardLimit caps GET /scores?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// CORSAllowedOrigin is echoed in Access-Control-Allow-Origin.
	CORSAllowedOrigin string `koanf:"cors_allowed_origin"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8080",
		DBPath:              "data/score.db",
		MaxOpenConns:        4,
		AcquireTimeoutMS:    5000,
		BusyTimeoutMS:       5000,
		DefaultLimit:        10,
		MaxLeaderboardLimit: 100,
		CORSAllowedOrigin:   "*",
	}
}

// AcquireTimeout returns AcquireTimeoutMS as a duration.
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMS) * time.Millisecond
}

// BusyTimeout returns BusyTimeoutMS as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.MaxOpenConns < 1:
		return fmt.Errorf("%w: max_open_conns must be positive, got %d", ErrInvalidConfig, c.MaxOpenConns)
	case c.AcquireTimeoutMS < 1:
		return fmt.Errorf("%w: acquire_timeout_ms must be positive, got %d", ErrInvalidConfig, c.AcquireTimeoutMS)
	case c.BusyTimeoutMS < 0:
		return fmt.Errorf("%w: busy_timeout_ms must not be negative, got %d", ErrInvalidConfig, c.BusyTimeoutMS)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLeaderboardLimit:
		return fmt.Errorf("%w: default_limit must be in [1, %d], got %d", ErrInvalidConfig, c.MaxLeaderboardLimit, c.DefaultLimit)
	}
	return nil
}
