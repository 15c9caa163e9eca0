package database

import (
	"fmt"
	"slices"
	"time"
)

// Config configures the SQLite backend.
type Config struct {
	// Enabled selects this backend for persistence when Redis is off.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DSN is a SQLite path or file: URI.
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// SlowQueryThreshold logs slower statements at warn.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
	// LogLevel is silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

var logLevels = []string{"silent", "error", "warn", "info"}

func (c *Config) ApplyDefaults() {
	if c.DSN == "" {
		c.DSN = "file:statekit.db?_busy_timeout=5000"
	}
	// SQLite serializes writers; one connection avoids "database is locked".
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 1
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate skips everything when the backend is disabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) must be <= max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("database.log_level must be one of %v (got: %s)", logLevels, c.LogLevel)
	}
	return nil
}
