package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/observability"
)

var _ component.Component = (*Component)(nil)

// Component ties a Client to the daemon lifecycle. The client exists before
// Start so stores can be built on it; Start only checks the connection.
type Component struct {
	client  *Client
	mu      sync.Mutex
	started bool
}

func NewComponent(client *Client) *Component {
	return &Component{client: client}
}

func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start fails when the server does not answer a ping.
func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) observability.Health {
	h := observability.Health{Name: c.Name(), Status: observability.HealthStatusUp}
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		h.Status = observability.HealthStatusDown
		h.Message = "not started"
		return h
	}
	if err := c.client.Ping(ctx); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	cfg := c.client.Config()
	h.Details = map[string]string{
		"addr":       cfg.Addr,
		"db":         strconv.Itoa(cfg.DB),
		"key_prefix": cfg.KeyPrefix,
	}
	return h
}
