package query

import (
	"fmt"
	"time"
)

const (
	DefaultKeepUnusedFor        = 60 * time.Second
	DefaultMaxConcurrentFetches = 16
)

// Config configures a Cache.
type Config struct {
	// KeepUnusedFor is how long an entry with no subscribers stays cached.
	KeepUnusedFor time.Duration `yaml:"keep_unused_for" mapstructure:"keep_unused_for"`
	// MaxConcurrentFetches bounds fetches in flight across all endpoints.
	// Further fetches wait for a slot.
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches" mapstructure:"max_concurrent_fetches"`
}

func (c *Config) ApplyDefaults() {
	if c.KeepUnusedFor == 0 {
		c.KeepUnusedFor = DefaultKeepUnusedFor
	}
	if c.MaxConcurrentFetches == 0 {
		c.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}
}

func (c *Config) Validate() error {
	if c.KeepUnusedFor <= 0 {
		return fmt.Errorf("query.keep_unused_for must be positive")
	}
	if c.MaxConcurrentFetches < 1 {
		return fmt.Errorf("query.max_concurrent_fetches must be at least 1")
	}
	return nil
}
