package daemon

import (
	"fmt"
	"time"

	"github.com/kbukum/statekit/apps/bank"
	"github.com/kbukum/statekit/apps/movies"
	"github.com/kbukum/statekit/apps/pokedex"
	"github.com/kbukum/statekit/config"
	"github.com/kbukum/statekit/database"
	"github.com/kbukum/statekit/httpclient"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/redis"
	"github.com/kbukum/statekit/server"
	"github.com/kbukum/statekit/storage"
	"github.com/kbukum/statekit/version"
)

// ServiceName is the default config name and the cmd directory searched for config.yml.
const ServiceName = "statekitd"

// Config is the full daemon configuration, loaded from config.yml, .env
// and environment variables (APIS_MOVIES_QUERY_APIKEY -> apis.movies.query.apikey).
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Store         StoreConfig          `yaml:"store" mapstructure:"store"`
	Query         query.Config         `yaml:"query" mapstructure:"query"`
	APIs          APIsConfig           `yaml:"apis" mapstructure:"apis"`
	Persist       storage.Config       `yaml:"persist" mapstructure:"persist"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// StoreConfig tunes the bank store.
type StoreConfig struct {
	OverdraftGuard bool   `yaml:"overdraft_guard" mapstructure:"overdraft_guard"`
	LocalCurrency  string `yaml:"local_currency" mapstructure:"local_currency"`
}

// APIsConfig holds one HTTP adapter per remote API.
type APIsConfig struct {
	Rates   httpclient.Config `yaml:"rates" mapstructure:"rates"`
	Pokemon httpclient.Config `yaml:"pokemon" mapstructure:"pokemon"`
	// Movies needs query.apikey set for OMDb.
	Movies httpclient.Config `yaml:"movies" mapstructure:"movies"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Store.LocalCurrency == "" {
		c.Store.LocalCurrency = bank.LocalCurrency
	}
	c.Query.ApplyDefaults()
	c.APIs.applyDefaults()
	c.Persist.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (a *APIsConfig) applyDefaults() {
	defaults := []struct {
		cfg  *httpclient.Config
		name string
		url  string
	}{
		{&a.Rates, "frankfurter", "https://api.frankfurter.app/"},
		{&a.Pokemon, "pokeapi", pokedex.BaseURL},
		{&a.Movies, "omdb", movies.BaseURL},
	}
	for _, d := range defaults {
		if d.cfg.Name == "" {
			d.cfg.Name = d.name
		}
		if d.cfg.BaseURL == "" {
			d.cfg.BaseURL = d.url
		}
		if d.cfg.Timeout == 0 {
			d.cfg.Timeout = 10 * time.Second
		}
		if d.cfg.Retry == nil {
			d.cfg.Retry = httpclient.DefaultRetryConfig()
		}
		d.cfg.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"service", c.ServiceConfig.Validate()},
		{"server", c.Server.Validate()},
		{"query", c.Query.Validate()},
		{"apis.rates", c.APIs.Rates.Validate()},
		{"apis.pokemon", c.APIs.Pokemon.Validate()},
		{"apis.movies", c.APIs.Movies.Validate()},
		{"persist", c.Persist.Validate()},
		{"database", c.Database.Validate()},
		{"redis", c.Redis.Validate()},
		{"observability", c.Observability.Validate()},
	}
	for _, chk := range checks {
		if chk.err != nil {
			return fmt.Errorf("%s: %w", chk.section, chk.err)
		}
	}
	if len(c.Store.LocalCurrency) != 3 {
		return fmt.Errorf("store.local_currency must be a 3-letter code (got: %q)", c.Store.LocalCurrency)
	}
	return nil
}

// Load reads configuration for the named service and applies defaults.
func Load(opts ...config.LoaderOption) (Config, error) {
	var cfg Config
	if err := config.LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
