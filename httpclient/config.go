package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/statekit/resilience"
	"github.com/kbukum/statekit/security"
)

const defaultTimeout = 15 * time.Second

// Config configures an Adapter.
type Config struct {
	// Name identifies the adapter in logs, metrics and circuit breaker state.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are sent with every request; request headers override them.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Query holds parameters sent with every request, such as an API key.
	Query map[string]string `yaml:"query" mapstructure:"query"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Nil disables the corresponding policy.
	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Retry != nil && c.Retry.RetryIf == nil {
		c.Retry.RetryIf = IsRetryable
	}
	if c.CircuitBreaker != nil && c.CircuitBreaker.Name == "" {
		c.CircuitBreaker.Name = c.Name
	}
	if c.RateLimiter != nil && c.RateLimiter.Name == "" {
		c.RateLimiter.Name = c.Name
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("httpclient: invalid base_url %q", c.BaseURL)
		}
	}
	if c.RateLimiter != nil && c.RateLimiter.Rate <= 0 {
		return fmt.Errorf("httpclient: rate_limiter.rate must be positive")
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}

// DefaultRetryConfig retries retryable HTTP errors with exponential backoff.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns the resilience defaults for name.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}
