package httpclient

import (
	"context"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/observability"
)

// Component owns an Adapter's lifecycle. The adapter exists from
// construction so endpoints can be wired before Start.
type Component struct {
	adapter *Adapter
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the adapter for cfg.
func NewComponent(cfg Config, opts ...Option) (*Component, error) {
	a, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Component{adapter: a}, nil
}

func (c *Component) Name() string { return "http:" + c.adapter.Name() }

func (c *Component) Start(context.Context) error { return nil }

func (c *Component) Stop(ctx context.Context) error { return c.adapter.Close(ctx) }

// Health reports degraded while the circuit breaker is open.
func (c *Component) Health(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:    c.Name(),
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"base_url": c.adapter.config.BaseURL},
	}
	if !c.adapter.IsAvailable(ctx) {
		h.Status = observability.HealthStatusDegraded
		h.Message = "circuit open"
	}
	return h
}

// Adapter returns the managed adapter.
func (c *Component) Adapter() *Adapter { return c.adapter }
