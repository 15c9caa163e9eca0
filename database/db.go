package database

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/statekit/logger"
)

// DB wraps a gorm handle on SQLite.
type DB struct {
	gorm   *gorm.DB
	log    *logger.Logger
	cfg    Config
	mu     sync.Mutex
	closed bool
}

// Open creates the handle and configures the pool. It errors when the
// backend is disabled.
func Open(cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("database is disabled")
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("database")

	g, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: &gormLogger{log: log, level: parseLogLevel(cfg.LogLevel), slow: cfg.SlowQueryThreshold},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DSN, err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database opened", logger.Fields("dsn", cfg.DSN))
	return &DB{gorm: g, log: log, cfg: cfg}, nil
}

// WithContext returns a session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB { return d.gorm.WithContext(ctx) }

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the tables for models.
func (d *DB) Migrate(ctx context.Context, models ...interface{}) error {
	for _, m := range models {
		if err := d.gorm.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}

// OpenConnections reports the pool size for health details.
func (d *DB) OpenConnections() int {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return 0
	}
	return sqlDB.Stats().OpenConnections
}

// Close is safe to call more than once.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	d.log.Info("database closed")
	return sqlDB.Close()
}
