package query

import (
	"context"
	"strconv"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/observability"
)

var _ component.Component = (*Cache)(nil)

func (c *Cache) Name() string { return "query" }

func (c *Cache) Start(context.Context) error { return nil }

func (c *Cache) Stop(ctx context.Context) error { return c.Close(ctx) }

func (c *Cache) Health(context.Context) observability.Health {
	h := observability.Health{Name: c.Name(), Status: observability.HealthStatusUp}
	c.mu.Lock()
	if c.closed {
		h.Status = observability.HealthStatusDown
		h.Message = "closed"
	}
	h.Details = map[string]string{
		"entries":         strconv.Itoa(len(c.entries)),
		"fetches_in_use":  strconv.Itoa(c.bulkhead.InUse()),
		"keep_unused_for": c.cfg.KeepUnusedFor.String(),
	}
	c.mu.Unlock()
	return h
}
