package server

import (
	"fmt"
	"time"

	"github.com/kbukum/statekit/resilience"
	"github.com/kbukum/statekit/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// ShutdownTimeout bounds graceful shutdown in Stop.
	ShutdownTimeout time.Duration         `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64                 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORS            middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	// ActionRateLimit throttles POST /actions across all clients.
	ActionRateLimit resilience.RateLimiterConfig `yaml:"action_rate_limit" mapstructure:"action_rate_limit"`
	// KeepAlive is the comment interval on event streams.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
}

// ApplyDefaults sets defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = middleware.DefaultMaxBodyBytes
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}
	if c.ActionRateLimit.Name == "" {
		c.ActionRateLimit.Name = "actions"
	}
	if c.ActionRateLimit.Rate == 0 {
		c.ActionRateLimit.Rate = 50
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be non-negative (got: %d)", c.MaxBodyBytes)
	}
	if c.ActionRateLimit.Rate < 0 {
		return fmt.Errorf("server.action_rate_limit.rate must be non-negative")
	}
	return nil
}
