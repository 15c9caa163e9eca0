package query

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/resilience"
	"github.com/kbukum/statekit/store"
)

// Cache holds query entries. It is safe for concurrent use.
type Cache struct {
	cfg        Config
	log        *logger.Logger
	metrics    *observability.Metrics
	mirrors    []mirror
	bulkhead   *resilience.Bulkhead

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	entries  map[string]*entry
	closed   bool
	events   []event
	flushing bool
	nextID   uint64
}

type entry struct {
	snapshot
	fetch         func(ctx context.Context) (any, error)
	message       func(error) string
	keepUnusedFor time.Duration
	subs          []*subscriber
	cancel        context.CancelFunc
	settled       chan struct{}
	evict         *time.Timer
}

type subscriber struct {
	id     uint64
	closed atomic.Bool

	mu        sync.Mutex
	listeners map[uint64]func(snapshot)
	nextID    uint64
}

func (s *subscriber) snapshotListeners() []func(snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(snapshot), len(ids))
	for i, id := range ids {
		fns[i] = s.listeners[id]
	}
	return fns
}

type event struct {
	snap    snapshot
	targets []*subscriber
	action  store.Action
}

// mirror is one store receiving query/* actions. No endpoints means all.
type mirror struct {
	dispatcher store.Dispatcher
	endpoints  map[string]bool
}

func (m mirror) wants(endpoint string) bool {
	return len(m.endpoints) == 0 || m.endpoints[endpoint]
}

// Option configures a Cache.
type Option func(*Cache)

func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) { c.log = log }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithStore mirrors entry transitions into d as query/* actions. When
// endpoints are given only their entries reach d, so one cache can feed a
// store per app. It may be passed once per store.
func WithStore(d store.Dispatcher, endpoints ...string) Option {
	m := mirror{dispatcher: d}
	if len(endpoints) > 0 {
		m.endpoints = make(map[string]bool, len(endpoints))
		for _, name := range endpoints {
			m.endpoints[name] = true
		}
	}
	return func(c *Cache) { c.mirrors = append(c.mirrors, m) }
}

// New creates a cache.
func New(cfg Config, opts ...Option) (*Cache, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		cfg:     cfg,
		log:     logger.Nop(),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "query",
			MaxConcurrent: cfg.MaxConcurrentFetches,
			MaxWait:       -1,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("query")
	return c, nil
}

// Subscribe registers interest in ep(arg). It never fails: fetch errors show
// up as a rejected State. The subscription ends on Unsubscribe or when ctx is
// done.
func Subscribe[A, T any](ctx context.Context, c *Cache, ep *Endpoint[A, T], arg A) *Subscription[T] {
	key := ep.Key(arg)
	sub, e, hit := c.subscribe(key, ep.name, func(e *entry) {
		e.fetch = ep.fetcher(arg)
		e.message = ep.message
		e.keepUnusedFor = ep.keepUnusedFor
	})
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ctx, ep.name, hit)
		c.metrics.AddSubscribers(ctx, ep.name, 1)
	}

	s := &Subscription[T]{cache: c, entry: e, sub: sub}
	s.stop = context.AfterFunc(ctx, s.Unsubscribe)
	return s
}

func (c *Cache) subscribe(key, endpoint string, init func(*entry)) (*subscriber, *entry, bool) {
	c.mu.Lock()
	c.nextID++
	sub := &subscriber{id: c.nextID, listeners: make(map[uint64]func(snapshot))}

	if c.closed {
		e := &entry{snapshot: snapshot{endpoint: endpoint, key: key, status: StatusRejected, err: "query cache is closed"}}
		e.subs = []*subscriber{sub}
		c.mu.Unlock()
		return sub, e, false
	}

	e, ok := c.entries[key]
	if !ok {
		e = &entry{snapshot: snapshot{endpoint: endpoint, key: key, status: StatusUninitialized}}
		init(e)
		c.entries[key] = e
	}
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	e.subs = append(e.subs, sub)
	hit := e.status == StatusFulfilled || e.status == StatusPending
	if e.status == StatusUninitialized || e.status == StatusRejected {
		c.startFetchLocked(e)
	}
	c.mu.Unlock()

	c.flush()
	return sub, e, hit
}

// startFetchLocked supersedes any fetch in flight for e.
func (c *Cache) startFetchLocked(e *entry) {
	if e.cancel != nil {
		e.cancel()
	}
	if e.status != StatusPending {
		e.settled = make(chan struct{})
	}
	e.generation++
	e.status = StatusPending
	ctx, cancel := context.WithCancel(c.ctx)
	e.cancel = cancel
	c.enqueueLocked(e, QueryPending{Endpoint: e.endpoint, Key: e.key, Generation: e.generation})

	c.log.Debug("query fetch started", logger.Fields(
		logger.FieldEndpoint, e.endpoint, logger.FieldCacheKey, e.key, "generation", e.generation))

	c.wg.Add(1)
	go c.run(ctx, cancel, e, e.generation)
}

func (c *Cache) run(ctx context.Context, cancel context.CancelFunc, e *entry, gen uint64) {
	defer c.wg.Done()
	defer cancel()

	start := time.Now()
	data, err := c.execute(ctx, e, gen)

	c.mu.Lock()
	if c.entries[e.key] != e || e.generation != gen {
		c.mu.Unlock()
		c.log.Debug("stale query result ignored", logger.Fields(logger.FieldCacheKey, e.key, "generation", gen))
		return
	}
	e.cancel = nil

	fields := logger.DurationFields("fetch", time.Since(start))
	fields[logger.FieldCacheKey] = e.key
	switch {
	case err == nil:
		e.status = StatusFulfilled
		e.data = data
		e.hasData = true
		e.err = ""
		e.fulfilledAt = time.Now()
		c.enqueueLocked(e, QueryFulfilled{Endpoint: e.endpoint, Key: e.key, Generation: gen, Data: data, FulfilledAt: e.fulfilledAt})
		c.log.Debug("query fulfilled", fields)
	case ctx.Err() != nil:
		c.resetLocked(e)
		c.log.Debug("query fetch cancelled", fields)
	default:
		e.status = StatusRejected
		e.err = e.message(err)
		c.enqueueLocked(e, QueryRejected{Endpoint: e.endpoint, Key: e.key, Generation: gen, Error: e.err})
		fields[logger.FieldError] = err.Error()
		c.log.Warn("query rejected", fields)
		if c.metrics != nil {
			c.metrics.RecordError(ctx, "rejected", e.endpoint)
		}
	}
	close(e.settled)
	c.mu.Unlock()

	c.flush()
}

// execute runs one fetch inside a bulkhead slot. Panics become errors.
func (c *Cache) execute(ctx context.Context, e *entry, gen uint64) (data any, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanQueryFetch,
		attribute.String(observability.AttrEndpoint, e.endpoint),
		attribute.String(observability.AttrCacheKey, e.key),
		attribute.String(observability.AttrGeneration, strconv.FormatUint(gen, 10)))
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("fetcher panicked: %v", r))
			c.log.Error("query fetcher panicked", logger.Fields(logger.FieldCacheKey, e.key, "panic", fmt.Sprint(r)))
		}
		observability.SetSpanError(span, err)
		span.End()
	}()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()
	return e.fetch(ctx)
}

// resetLocked drops a pending entry back to its last settled form without
// recording an error.
func (c *Cache) resetLocked(e *entry) {
	if e.hasData {
		e.status = StatusFulfilled
	} else {
		e.status = StatusUninitialized
	}
	c.enqueueLocked(e, QueryReset{Endpoint: e.endpoint, Key: e.key, Generation: e.generation, Status: e.status})
}

func (c *Cache) unsubscribe(e *entry, sub *subscriber) {
	c.mu.Lock()
	for i, s := range e.subs {
		if s == sub {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			break
		}
	}
	if len(e.subs) > 0 || c.entries[e.key] != e {
		c.mu.Unlock()
		return
	}

	if e.status == StatusPending {
		e.cancel()
		e.cancel = nil
		e.generation++
		c.resetLocked(e)
		close(e.settled)
		c.log.Debug("query fetch cancelled, no subscribers", logger.Fields(logger.FieldCacheKey, e.key))
	}

	keep := e.keepUnusedFor
	if keep <= 0 {
		keep = c.cfg.KeepUnusedFor
	}
	e.evict = time.AfterFunc(keep, func() { c.evict(e) })
	c.mu.Unlock()

	c.flush()
}

func (c *Cache) evict(e *entry) {
	c.mu.Lock()
	if c.entries[e.key] != e || len(e.subs) > 0 {
		c.mu.Unlock()
		return
	}
	c.removeLocked(e)
	c.mu.Unlock()

	c.log.Debug("query evicted", logger.Fields(logger.FieldCacheKey, e.key))
	c.flush()
}

func (c *Cache) removeLocked(e *entry) {
	if e.status == StatusPending {
		e.cancel()
		e.cancel = nil
		e.generation++
		if e.hasData {
			e.status = StatusFulfilled
		} else {
			e.status = StatusUninitialized
		}
		close(e.settled)
	}
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	delete(c.entries, e.key)
	c.events = append(c.events, event{snap: e.snapshot, action: QueryRemoved{Endpoint: e.endpoint, Key: e.key}})
}

func (c *Cache) refetch(e *entry) {
	c.mu.Lock()
	if c.entries[e.key] != e {
		c.mu.Unlock()
		return
	}
	c.startFetchLocked(e)
	c.mu.Unlock()
	c.flush()
}

// Invalidate marks ep(arg) stale. An entry with subscribers refetches and
// keeps showing its data meanwhile; an unused entry is dropped.
func Invalidate[A, T any](c *Cache, ep *Endpoint[A, T], arg A) {
	c.invalidate(func(e *entry) bool { return e.key == ep.Key(arg) })
}

// InvalidateEndpoint invalidates every entry of the named endpoint.
func (c *Cache) InvalidateEndpoint(name string) {
	c.invalidate(func(e *entry) bool { return e.endpoint == name })
}

func (c *Cache) invalidate(match func(*entry) bool) {
	c.mu.Lock()
	for _, e := range c.entries {
		if !match(e) {
			continue
		}
		if len(e.subs) > 0 {
			c.startFetchLocked(e)
		} else {
			c.removeLocked(e)
		}
	}
	c.mu.Unlock()
	c.flush()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels every fetch, drops all entries and waits for fetch
// goroutines to return or ctx to end.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, e := range c.entries {
		c.removeLocked(e)
	}
	c.events = nil
	c.mu.Unlock()
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cache) enqueueLocked(e *entry, action store.Action) {
	targets := make([]*subscriber, len(e.subs))
	copy(targets, e.subs)
	c.events = append(c.events, event{snap: e.snapshot, targets: targets, action: action})
}

// flush delivers queued events in order. Only one goroutine delivers at a
// time; events queued meanwhile are picked up by that goroutine.
func (c *Cache) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true
	for len(c.events) > 0 {
		ev := c.events[0]
		c.events = c.events[1:]
		c.mu.Unlock()
		c.deliver(ev)
		c.mu.Lock()
	}
	c.flushing = false
	c.mu.Unlock()
}

func (c *Cache) deliver(ev event) {
	for _, sub := range ev.targets {
		if sub.closed.Load() {
			continue
		}
		for _, fn := range sub.snapshotListeners() {
			c.call(fn, ev.snap)
		}
	}
	if ev.action == nil {
		return
	}
	for _, m := range c.mirrors {
		if !m.wants(ev.snap.endpoint) {
			continue
		}
		if err := m.dispatcher.Dispatch(context.Background(), ev.action); err != nil {
			c.log.Warn("query mirror dispatch failed", logger.Fields(
				logger.FieldAction, ev.action.Type(), logger.FieldError, err.Error()))
		}
	}
}

func (c *Cache) call(fn func(snapshot), snap snapshot) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("query listener panicked", logger.Fields(logger.FieldCacheKey, snap.key, "panic", fmt.Sprint(r)))
		}
	}()
	fn(snap)
}
