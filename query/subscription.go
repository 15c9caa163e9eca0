package query

import (
	"context"
	"sync"
)

// Subscription is one subscriber's handle on a cache entry.
type Subscription[T any] struct {
	cache *Cache
	entry *entry
	sub   *subscriber
	once  sync.Once
	stop  func() bool
}

// Key returns the entry's cache key.
func (s *Subscription[T]) Key() string { return s.entry.key }

// State returns the entry's current state.
func (s *Subscription[T]) State() State[T] {
	s.cache.mu.Lock()
	snap := s.entry.snapshot
	s.cache.mu.Unlock()
	return typed[T](snap)
}

// Wait blocks until the entry is no longer pending or ctx ends.
func (s *Subscription[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		s.cache.mu.Lock()
		if s.entry.status != StatusPending {
			snap := s.entry.snapshot
			s.cache.mu.Unlock()
			return typed[T](snap), nil
		}
		settled := s.entry.settled
		s.cache.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return s.State(), ctx.Err()
		}
	}
}

// OnChange calls fn with every later transition of the entry until the
// returned function is called or the subscription ends. Calls arrive in
// transition order and never concurrently for one cache.
func (s *Subscription[T]) OnChange(fn func(State[T])) (remove func()) {
	s.sub.mu.Lock()
	s.sub.nextID++
	id := s.sub.nextID
	s.sub.listeners[id] = func(snap snapshot) { fn(typed[T](snap)) }
	s.sub.mu.Unlock()

	return func() {
		s.sub.mu.Lock()
		delete(s.sub.listeners, id)
		s.sub.mu.Unlock()
	}
}

// Refetch starts a new fetch, superseding one in flight. Data stays visible
// until the new fetch settles.
func (s *Subscription[T]) Refetch() {
	if s.sub.closed.Load() {
		return
	}
	s.cache.refetch(s.entry)
}

// Unsubscribe ends the subscription. Calling it again is a no-op.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.sub.closed.Store(true)
		s.cache.unsubscribe(s.entry, s.sub)
		if s.cache.metrics != nil {
			s.cache.metrics.AddSubscribers(context.Background(), s.entry.endpoint, -1)
		}
	})
}
