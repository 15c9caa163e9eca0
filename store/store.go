package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/statekit/logger"
)

// Listener is called with no arguments after every completed dispatch.
// Listeners read the new state through GetState.
type Listener func()

// API is the view of a store handed to middleware and thunks.
type API[S any] interface {
	Dispatch(ctx context.Context, action Action) error
	GetState() S
}

// Middleware wraps the dispatch chain. api.Dispatch re-enters the full chain;
// next continues to the following middleware and finally the reducer.
type Middleware[S any] func(api API[S], next DispatchFunc) DispatchFunc

type listener struct {
	fn     Listener
	active atomic.Bool
}

// Store holds the current state snapshot and dispatches actions to a reducer.
// It is safe for concurrent use; dispatches are serialized.
type Store[S any] struct {
	name     string
	reduce   StrictReducer[S]
	snapshot func(S) S
	log      *logger.Logger

	mu      sync.RWMutex
	state   S
	version uint64

	listenersMu sync.Mutex
	listeners   []*listener

	notifyMu sync.Mutex
	pending  int
	draining bool

	middleware []Middleware[S]
	dispatch   DispatchFunc
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithName names the store in logs and metrics.
func WithName[S any](name string) Option[S] {
	return func(s *Store[S]) { s.name = name }
}

// WithLogger sets the logger used for listener failures.
func WithLogger[S any](log *logger.Logger) Option[S] {
	return func(s *Store[S]) { s.log = log }
}

// WithSnapshot sets a copy function applied by GetState, for state types that
// hold mutable references.
func WithSnapshot[S any](copyFn func(S) S) Option[S] {
	return func(s *Store[S]) { s.snapshot = copyFn }
}

// WithMiddleware appends middleware; the first one given runs outermost.
func WithMiddleware[S any](mws ...Middleware[S]) Option[S] {
	return func(s *Store[S]) {
		s.middleware = append(s.middleware, mws...)
	}
}

// New creates a store whose reducer ignores unknown actions.
func New[S any](reducer Reducer[S], initial S, opts ...Option[S]) *Store[S] {
	return NewStrict(func(state S, action Action) (S, error) {
		return reducer(state, action), nil
	}, initial, opts...)
}

// NewStrict creates a store whose reducer may reject actions. A rejected
// action leaves the state untouched, notifies nobody, and its error is
// returned from Dispatch.
func NewStrict[S any](reducer StrictReducer[S], initial S, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		name:   "store",
		reduce: reducer,
		state:  initial,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}

	s.dispatch = s.base
	for i := len(s.middleware) - 1; i >= 0; i-- {
		s.dispatch = s.middleware[i](s, s.dispatch)
	}
	s.middleware = nil
	return s
}

// Name returns the store name.
func (s *Store[S]) Name() string { return s.name }

// Dispatch sends action through the middleware chain to the reducer. For a
// plain action it returns after the new state is in place; subscribers have
// been notified unless the call happened inside another notification pass, in
// which case this dispatch's pass runs right after the current one.
func (s *Store[S]) Dispatch(ctx context.Context, action Action) error {
	return s.dispatch(ctx, action)
}

// GetState returns the current snapshot.
func (s *Store[S]) GetState() S {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	if s.snapshot != nil {
		return s.snapshot(st)
	}
	return st
}

// Version counts state replacements. It increases by one per reduced action.
func (s *Store[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers fn and returns its unsubscribe function. A listener
// added during a notification pass is first called on the next pass; one
// removed during a pass is not called again, even later in that pass.
// Unsubscribe is idempotent.
func (s *Store[S]) Subscribe(fn Listener) (unsubscribe func()) {
	l := &listener{fn: fn}
	l.active.Store(true)

	s.listenersMu.Lock()
	next := make([]*listener, len(s.listeners), len(s.listeners)+1)
	copy(next, s.listeners)
	s.listeners = append(next, l)
	s.listenersMu.Unlock()

	return func() {
		if !l.active.CompareAndSwap(true, false) {
			return
		}
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		next := make([]*listener, 0, len(s.listeners))
		for _, other := range s.listeners {
			if other != l {
				next = append(next, other)
			}
		}
		s.listeners = next
	}
}

// base is the innermost link: reduce, then notify.
func (s *Store[S]) base(_ context.Context, action Action) error {
	if _, ok := action.(thunkAction); ok {
		return ErrThunkUnsupported
	}

	s.mu.Lock()
	next, err := s.reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.version++
	s.mu.Unlock()

	s.notify()
	return nil
}

// notify queues one notification pass and drains the queue unless another
// call is already draining it, so passes never interleave.
func (s *Store[S]) notify() {
	s.notifyMu.Lock()
	s.pending++
	if s.draining {
		s.notifyMu.Unlock()
		return
	}
	s.draining = true
	for s.pending > 0 {
		s.pending--
		s.notifyMu.Unlock()
		s.runPass()
		s.notifyMu.Lock()
	}
	s.draining = false
	s.notifyMu.Unlock()
}

func (s *Store[S]) runPass() {
	s.listenersMu.Lock()
	pass := s.listeners
	s.listenersMu.Unlock()

	for _, l := range pass {
		if l.active.Load() {
			s.call(l)
		}
	}
}

func (s *Store[S]) call(l *listener) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("store listener panicked", logger.Fields("store", s.name, "panic", r))
		}
	}()
	l.fn()
}
