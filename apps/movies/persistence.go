package movies

import (
	"context"
	"slices"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/provider"
	"github.com/kbukum/statekit/store"
)

// DefaultWatchedKey is where the watched list is persisted.
const DefaultWatchedKey = "watched"

// WatchedPersistence reloads the watched list at startup and rewrites it
// after every change.
type WatchedPersistence struct {
	backend provider.ContextStore[[]WatchedMovie]
	key     string
	log     *logger.Logger
}

// NewWatchedPersistence persists under DefaultWatchedKey unless key is set.
func NewWatchedPersistence(backend provider.ContextStore[[]WatchedMovie], key string, log *logger.Logger) *WatchedPersistence {
	if key == "" {
		key = DefaultWatchedKey
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WatchedPersistence{backend: backend, key: key, log: log.WithComponent("movies.persistence")}
}

// Restore loads the saved list into st. A missing list leaves st alone.
func (p *WatchedPersistence) Restore(ctx context.Context, st store.Dispatcher) error {
	saved, err := p.backend.Load(ctx, p.key)
	if err != nil {
		return err
	}
	if saved == nil {
		return nil
	}
	p.log.Debug("watched list restored", logger.Fields("count", len(*saved)))
	return st.Dispatch(ctx, LoadWatched{Movies: *saved})
}

// Attach saves the watched list whenever it changes, until the returned
// function is called. Save failures are logged.
func (p *WatchedPersistence) Attach(st *store.Store[*store.State]) (detach func()) {
	return store.Select(st,
		func(s *store.State) []WatchedMovie { return WatchedSlice.Get(s) },
		slices.Equal[[]WatchedMovie],
		func(list []WatchedMovie) {
			if err := p.save(context.Background(), list); err != nil {
				p.log.Warn("saving watched list failed", logger.ErrorFields("save", err))
			}
		})
}

func (p *WatchedPersistence) save(ctx context.Context, list []WatchedMovie) error {
	saved := slices.Clone(list)
	return p.backend.Save(ctx, p.key, &saved, 0)
}
