package sse

import (
	"context"
	"strconv"
	"sync"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
)

var _ component.Component = (*Component)(nil)

// Component runs a Hub for the daemon lifecycle.
type Component struct {
	hub     *Hub
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewComponent(log *logger.Logger) *Component {
	return &Component{hub: NewHub(log)}
}

func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop waits for the hub loop to exit.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hub.Stop()
	c.wg.Wait()
	c.running = false
	return nil
}

func (c *Component) Health(context.Context) observability.Health {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	h := observability.Health{
		Name:    c.Name(),
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"clients": strconv.Itoa(c.hub.ClientCount())},
	}
	if !running {
		h.Status = observability.HealthStatusDown
		h.Message = "hub not running"
	}
	return h
}
