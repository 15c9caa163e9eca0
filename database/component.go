package database

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/observability"
)

var _ component.Component = (*Component)(nil)

// Component migrates the Entry table on start and closes the handle on stop.
type Component struct {
	db      *DB
	mu      sync.Mutex
	started bool
}

func NewComponent(db *DB) *Component { return &Component{db: db} }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	if err := c.db.Ping(ctx); err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	if err := c.db.Migrate(ctx, &Entry{}); err != nil {
		return fmt.Errorf("database start: %w", err)
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
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) observability.Health {
	h := observability.Health{Name: c.Name(), Status: observability.HealthStatusUp}
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		h.Status, h.Message = observability.HealthStatusDown, "not started"
		return h
	}
	if err := c.db.Ping(ctx); err != nil {
		h.Status, h.Message = observability.HealthStatusDown, err.Error()
		return h
	}
	h.Details = map[string]string{
		"dsn":              c.db.cfg.DSN,
		"open_connections": strconv.Itoa(c.db.OpenConnections()),
	}
	return h
}
