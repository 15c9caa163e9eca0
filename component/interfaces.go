package component

import (
	"context"

	"github.com/kbukum/statekit/observability"
)

// Component is a lifecycle-managed part of the daemon.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) observability.Health
}

// Func adapts plain functions to Component. Nil functions are no-ops and a
// nil health function reports up.
type Func struct {
	ComponentName string
	OnStart       func(ctx context.Context) error
	OnStop        func(ctx context.Context) error
	OnHealth      func(ctx context.Context) observability.Health
}

func (f *Func) Name() string { return f.ComponentName }

func (f *Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f *Func) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}

func (f *Func) Health(ctx context.Context) observability.Health {
	if f.OnHealth == nil {
		return observability.Health{Name: f.ComponentName, Status: observability.HealthStatusUp}
	}
	return f.OnHealth(ctx)
}
