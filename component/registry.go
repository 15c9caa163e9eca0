package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
)

type entry struct {
	component Component
	started   bool
}

// Registry starts components in registration order and stops them in
// reverse.
type Registry struct {
	log         *logger.Logger
	stopTimeout time.Duration

	mu      sync.Mutex
	entries []*entry
	names   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		log:         log.WithComponent("registry"),
		stopTimeout: 10 * time.Second,
		names:       make(map[string]bool),
	}
}

// Register adds c. Register dependencies before their dependents.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if r.names[name] {
		return fmt.Errorf("component %s already registered", name)
	}
	r.names[name] = true
	r.entries = append(r.entries, &entry{component: c})
	return nil
}

// StartAll starts every component. On failure the components already started
// are stopped again before the error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.started {
			continue
		}
		name := e.component.Name()
		if err := e.component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
			_ = r.stopLocked(ctx)
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, name))
	}
	r.log.Info("all components started", logger.Fields("count", len(r.entries)))
	return nil
}

// StopAll stops started components in reverse order and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked(ctx)
}

func (r *Registry) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		if err := e.component.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, name, logger.FieldError, err.Error()))
		} else {
			r.log.Debug("component stopped", logger.Fields(logger.FieldComponent, name))
		}
		cancel()
		e.started = false
	}
	return errors.Join(errs...)
}

// Health reports every component, in registration order, under service.
func (r *Registry) Health(ctx context.Context, service, version string) *observability.ServiceHealth {
	r.mu.Lock()
	components := make([]Component, len(r.entries))
	for i, e := range r.entries {
		components[i] = e.component
	}
	r.mu.Unlock()

	sh := observability.NewServiceHealth(service, version)
	for _, c := range components {
		sh.AddComponent(c.Health(ctx))
	}
	return sh
}
