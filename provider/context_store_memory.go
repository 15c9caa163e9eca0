package provider

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ContextStore. Expired entries are dropped on
// Load.
type MemoryStore[C any] struct {
	mu    sync.RWMutex
	items map[string]memEntry[C]
	now   func() time.Time
}

type memEntry[C any] struct {
	val       C
	expiresAt time.Time
}

var _ ContextStore[any] = (*MemoryStore[any])(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore[C any]() *MemoryStore[C] {
	return &MemoryStore[C]{items: make(map[string]memEntry[C]), now: time.Now}
}

// Load returns a copy of the stored value so callers cannot mutate it in place.
func (s *MemoryStore[C]) Load(_ context.Context, key string) (*C, error) {
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, nil
	}
	val := entry.val
	return &val, nil
}

// Save stores a shallow copy of val.
func (s *MemoryStore[C]) Save(_ context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return s.Delete(context.Background(), key)
	}
	entry := memEntry[C]{val: *val}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[C]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len counts entries, including expired ones not yet loaded.
func (s *MemoryStore[C]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
