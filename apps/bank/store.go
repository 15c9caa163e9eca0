package bank

import (
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/store"
)

// Slices read from the combined state.
var (
	AccountSlice  = store.NewSlice("account", Account{}, AccountReducer(false))
	CustomerSlice = store.NewSlice("customer", Customer{}, ReduceCustomer)
)

// Store is the bank store.
type Store = store.Store[*store.State]

type options struct {
	overdraftGuard bool
	log            *logger.Logger
	metrics        *observability.Metrics
	extra          []store.Middleware[*store.State]
}

// Option configures NewStore.
type Option func(*options)

// WithOverdraftGuard ignores withdrawals larger than the balance.
func WithOverdraftGuard() Option {
	return func(o *options) { o.overdraftGuard = true }
}

// WithLogger adds dispatch logging.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records dispatches under the store name "bank".
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMiddleware appends middleware after the thunk middleware.
func WithMiddleware(mws ...store.Middleware[*store.State]) Option {
	return func(o *options) { o.extra = append(o.extra, mws...) }
}

// NewStore combines the account and customer slices behind thunk support.
func NewStore(opts ...Option) *Store {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	root := store.Combine(
		store.NewSlice("account", Account{}, AccountReducer(o.overdraftGuard)),
		CustomerSlice,
	)

	mws := []store.Middleware[*store.State]{store.Tracing[*store.State]()}
	if o.log != nil {
		mws = append(mws, store.Logging[*store.State](o.log))
	}
	if o.metrics != nil {
		mws = append(mws, store.Metrics[*store.State](o.metrics, "bank"))
	}
	mws = append(mws, store.Thunks[*store.State]())
	mws = append(mws, o.extra...)

	storeOpts := []store.Option[*store.State]{
		store.WithName[*store.State]("bank"),
		store.WithMiddleware(mws...),
	}
	if o.log != nil {
		storeOpts = append(storeOpts, store.WithLogger[*store.State](o.log))
	}
	return store.New(root.Reduce, root.Initial(), storeOpts...)
}
