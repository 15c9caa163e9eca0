package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
)

var _ component.Component = (*Component)(nil)

// Component checks that the persistence directory exists and stays writable.
type Component struct {
	cfg Config
	log *logger.Logger
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.log.Info("file persistence ready", logger.Fields("dir", c.cfg.Dir))
	return nil
}

func (c *Component) Stop(context.Context) error { return nil }

func (c *Component) Health(context.Context) observability.Health {
	h := observability.Health{
		Name:    c.Name(),
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"dir": c.cfg.Dir},
	}
	info, err := os.Stat(c.cfg.Dir)
	switch {
	case err != nil:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	case !info.IsDir():
		h.Status = observability.HealthStatusDown
		h.Message = "not a directory"
	}
	return h
}
