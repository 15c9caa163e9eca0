package daemon

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kbukum/statekit/apps/bank"
	"github.com/kbukum/statekit/apps/counter"
	"github.com/kbukum/statekit/apps/movies"
	"github.com/kbukum/statekit/apps/pokedex"
	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/database"
	"github.com/kbukum/statekit/httpclient"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/provider"
	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/redis"
	"github.com/kbukum/statekit/resilience"
	"github.com/kbukum/statekit/server"
	"github.com/kbukum/statekit/sse"
	"github.com/kbukum/statekit/storage"
	"github.com/kbukum/statekit/store"
)

// WatchedKey is the persistence key of the watched-movie list.
const WatchedKey = "movies:watched"

// Daemon owns every long-lived part of statekitd.
type Daemon struct {
	cfg      Config
	log      *logger.Logger
	registry *component.Registry
	server   *server.Server
	hub      *sse.Hub
	actions  *resilience.RateLimiter

	bank      *bank.Store
	counter   *store.Store[counter.State]
	pokedex   *store.Store[*store.State]
	movies    *store.Store[*store.State]
	stores    map[string]*hostedStore
	cache     *query.Cache
	pokeAPI   *pokedex.API
	movieAPI  *movies.API
	persisted *movies.WatchedPersistence
}

// Option configures New.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	metrics   *observability.Metrics
}

// WithTransport sends all outbound API traffic through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMetrics overrides the metrics built from the global meter provider.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New wires stores, the query cache, persistence, the event hub and the HTTP
// server. Nothing is started until Start.
func New(cfg Config, log *logger.Logger, opts ...Option) (*Daemon, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if log == nil {
		log = logger.Nop()
	}
	metrics := o.metrics
	if metrics == nil {
		m, err := observability.NewMetrics(observability.Meter(ServiceName))
		if err != nil {
			return nil, fmt.Errorf("creating metrics: %w", err)
		}
		metrics = m
	}

	d := &Daemon{
		cfg:      cfg,
		log:      log.WithComponent("daemon"),
		registry: component.NewRegistry(log),
		actions:  resilience.NewRateLimiter(cfg.Server.ActionRateLimit),
	}

	var httpOpts []httpclient.Option
	if o.transport != nil {
		httpOpts = append(httpOpts, httpclient.WithTransport(o.transport))
	}
	rates, err := d.adapter(cfg.APIs.Rates, httpOpts)
	if err != nil {
		return nil, err
	}
	pokeAdapter, err := d.adapter(cfg.APIs.Pokemon, httpOpts)
	if err != nil {
		return nil, err
	}
	movieAdapter, err := d.adapter(cfg.APIs.Movies, httpOpts)
	if err != nil {
		return nil, err
	}

	backend, err := d.persistence(cfg)
	if err != nil {
		return nil, err
	}

	converter := bank.NewConverter(
		provider.Chain(
			provider.WithTracing[bank.Conversion, float64](),
			provider.WithLogging[bank.Conversion, float64](log),
			provider.WithMetrics[bank.Conversion, float64](metrics),
		)(bank.FrankfurterRates(rates)),
		bank.WithLocalCurrency(cfg.Store.LocalCurrency),
		bank.WithConverterLogger(log),
	)
	bankOpts := []bank.Option{bank.WithLogger(log), bank.WithMetrics(metrics)}
	if cfg.Store.OverdraftGuard {
		bankOpts = append(bankOpts, bank.WithOverdraftGuard())
	}
	d.bank = bank.NewStore(bankOpts...)
	d.counter = counter.NewStore(log)

	storeOpts := func(name string) []store.Option[*store.State] {
		return []store.Option[*store.State]{
			store.WithName[*store.State](name),
			store.WithMiddleware(
				store.Logging[*store.State](log),
				store.Metrics[*store.State](metrics, name),
			),
		}
	}
	d.pokedex = pokedex.NewStore(storeOpts("pokedex")...)
	d.movies = movies.NewStore(storeOpts("movies")...)
	d.stores = map[string]*hostedStore{
		"bank":    host("bank", d.bank, bank.Codec(converter)),
		"counter": host("counter", d.counter, counter.Codec()),
		"pokedex": host("pokedex", d.pokedex, nil),
		"movies":  host("movies", d.movies, nil),
	}

	d.cache, err = query.New(cfg.Query,
		query.WithLogger(log),
		query.WithMetrics(metrics),
		query.WithStore(d.pokedex, pokedex.EndpointList, pokedex.EndpointByName),
		query.WithStore(d.movies, movies.EndpointSearch, movies.EndpointDetails),
	)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	d.pokeAPI = pokedex.NewAPI(pokeAdapter, pokedex.WithLogger(log), pokedex.WithMetrics(metrics))
	d.movieAPI = movies.NewAPI(movieAdapter)
	d.persisted = movies.NewWatchedPersistence(backend, WatchedKey, log)

	events := sse.NewComponent(log)
	d.hub = events.Hub()

	d.server = server.New(cfg.Server, log)
	d.server.ApplyMiddleware()
	d.routes()

	for _, c := range []component.Component{
		d.cache,
		events,
		d.storesComponent(),
		server.NewComponent(d.server),
	} {
		if err := d.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// adapter builds an HTTP adapter and registers it first so it stops last.
func (d *Daemon) adapter(cfg httpclient.Config, opts []httpclient.Option) (*httpclient.Adapter, error) {
	c, err := httpclient.NewComponent(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("api %s: %w", cfg.Name, err)
	}
	if err := d.registry.Register(c); err != nil {
		return nil, err
	}
	return c.Adapter(), nil
}

// persistence picks Redis, then SQLite, then the local directory.
func (d *Daemon) persistence(cfg Config) (provider.ContextStore[[]movies.WatchedMovie], error) {
	switch {
	case cfg.Redis.Enabled:
		client, err := redis.New(cfg.Redis, d.log)
		if err != nil {
			return nil, err
		}
		if err := d.registry.Register(redis.NewComponent(client)); err != nil {
			return nil, err
		}
		return redis.NewTypedStore[[]movies.WatchedMovie](client, cfg.Redis.KeyPrefix), nil
	case cfg.Database.Enabled:
		db, err := database.Open(cfg.Database, d.log)
		if err != nil {
			return nil, err
		}
		if err := d.registry.Register(database.NewComponent(db)); err != nil {
			return nil, err
		}
		return database.NewKVStore[[]movies.WatchedMovie](db, "statekit"), nil
	}
	fs, err := storage.NewFileStore[[]movies.WatchedMovie](cfg.Persist.Dir)
	if err != nil {
		return nil, err
	}
	if err := d.registry.Register(storage.NewComponent(cfg.Persist, d.log)); err != nil {
		return nil, err
	}
	return fs, nil
}

// storesComponent restores persisted state and starts publishing snapshots
// once the backends are up, and undoes both on stop.
func (d *Daemon) storesComponent() component.Component {
	var stops []func()
	return &component.Func{
		ComponentName: "stores",
		OnStart: func(ctx context.Context) error {
			if err := d.persisted.Restore(ctx, d.movies); err != nil {
				return fmt.Errorf("restoring watched list: %w", err)
			}
			stops = append(stops, d.persisted.Attach(d.movies))
			for _, st := range d.stores {
				stops = append(stops, st.publish(d.hub, d.log))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			for _, stop := range stops {
				stop()
			}
			stops = nil
			return nil
		},
		OnHealth: func(context.Context) observability.Health {
			details := make(map[string]string, len(d.stores))
			for name, st := range d.stores {
				details[name+"_version"] = fmt.Sprint(st.version())
			}
			return observability.Health{Name: "stores", Status: observability.HealthStatusUp, Details: details}
		},
	}
}

// Handler is the full HTTP handler, for tests and embedding.
func (d *Daemon) Handler() http.Handler { return d.server.Handler() }

// Addr is the bound server address once started.
func (d *Daemon) Addr() string { return d.server.Addr() }

// Start brings components up in registration order.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.registry.StartAll(ctx); err != nil {
		return err
	}
	for _, r := range d.server.Routes() {
		d.log.Debug("route", logger.Fields("method", r.Method, "path", r.Path, "handler", r.Handler))
	}
	d.log.Info("statekitd started", logger.Fields("addr", d.server.Addr(), "environment", d.cfg.Environment))
	return nil
}

// Stop tears components down in reverse order.
func (d *Daemon) Stop(ctx context.Context) error {
	return d.registry.StopAll(ctx)
}

// Run starts the daemon, blocks until ctx ends, then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.log.Info("shutting down")
	return d.Stop(context.WithoutCancel(ctx))
}
