package scope

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/kbukum/statekit/logger"
)

// Source is anything that announces changes.
type Source interface {
	OnChange(fn func()) (remove func())
}

type listener[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// Provider owns a value of type T. It is safe for concurrent use.
type Provider[T any] struct {
	name  string
	equal func(a, b T) bool
	log   *logger.Logger

	mu        sync.RWMutex
	value     T
	listeners []*listener[T]

	notifyMu sync.Mutex
	pending  []T
	draining bool
}

// Option configures a Provider.
type Option[T any] func(*Provider[T])

// WithEqual sets the test deciding whether a new value is a change.
// The default is reflect.DeepEqual.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(p *Provider[T]) { p.equal = equal }
}

// WithLogger sets the logger used for listener panics.
func WithLogger[T any](log *logger.Logger) Option[T] {
	return func(p *Provider[T]) { p.log = log }
}

// NewProvider creates a provider holding initial.
func NewProvider[T any](name string, initial T, opts ...Option[T]) *Provider[T] {
	p := &Provider[T]{name: name, value: initial, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.equal == nil {
		p.equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return p
}

func (p *Provider[T]) Name() string { return p.name }

// Get returns the current value.
func (p *Provider[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the value and notifies subscribers when it changed.
func (p *Provider[T]) Set(v T) {
	p.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically.
func (p *Provider[T]) Update(fn func(T) T) {
	p.mu.Lock()
	next := fn(p.value)
	if p.equal(p.value, next) {
		p.mu.Unlock()
		return
	}
	p.value = next
	p.notifyMu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()

	if p.draining {
		p.notifyMu.Unlock()
		return
	}
	p.draining = true
	p.notifyMu.Unlock()
	p.drain()
}

// drain delivers queued values in order. Updates made by listeners are
// queued behind the value being delivered.
func (p *Provider[T]) drain() {
	for {
		p.notifyMu.Lock()
		if len(p.pending) == 0 {
			p.draining = false
			p.notifyMu.Unlock()
			return
		}
		v := p.pending[0]
		p.pending = p.pending[1:]
		p.notifyMu.Unlock()

		p.mu.RLock()
		pass := p.listeners
		p.mu.RUnlock()
		for _, l := range pass {
			if l.active.Load() {
				p.call(l.fn, v)
			}
		}
	}
}

func (p *Provider[T]) call(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("scope listener panicked", logger.Fields(logger.FieldComponent, p.name, "panic", fmt.Sprint(r)))
		}
	}()
	fn(v)
}

// Subscribe calls fn with each new value. The returned function removes it
// and may be called more than once.
func (p *Provider[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	l := &listener[T]{fn: fn}
	l.active.Store(true)

	p.mu.Lock()
	next := make([]*listener[T], len(p.listeners), len(p.listeners)+1)
	copy(next, p.listeners)
	p.listeners = append(next, l)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Store(false)
			p.mu.Lock()
			defer p.mu.Unlock()
			next := make([]*listener[T], 0, len(p.listeners))
			for _, x := range p.listeners {
				if x != l {
					next = append(next, x)
				}
			}
			p.listeners = next
		})
	}
}

// OnChange implements Source.
func (p *Provider[T]) OnChange(fn func()) (remove func()) {
	return p.Subscribe(func(T) { fn() })
}
