package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/statekit/errors"
)

// Prefetch loads ep for every arg concurrently and waits until all settle.
// The entries stay cached for the grace window afterwards. The first
// rejection is returned as a QUERY_REJECTED error.
func Prefetch[A, T any](ctx context.Context, c *Cache, ep *Endpoint[A, T], args ...A) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, arg := range args {
		g.Go(func() error {
			sub := Subscribe(gctx, c, ep, arg)
			defer sub.Unsubscribe()

			st, err := sub.Wait(gctx)
			if err != nil {
				return err
			}
			if st.IsError() {
				return errors.QueryRejected(ep.Name(), st.Error, nil).WithDetail("key", sub.Key())
			}
			return nil
		})
	}
	return g.Wait()
}

// Fetch subscribes to ep(arg), waits for the result and unsubscribes. A
// rejected entry is returned as a QUERY_REJECTED error.
func Fetch[A, T any](ctx context.Context, c *Cache, ep *Endpoint[A, T], arg A) (State[T], error) {
	sub := Subscribe(ctx, c, ep, arg)
	defer sub.Unsubscribe()

	st, err := sub.Wait(ctx)
	if err != nil {
		return st, err
	}
	if st.IsError() {
		return st, errors.QueryRejected(ep.Name(), st.Error, nil).WithDetail("key", sub.Key())
	}
	return st, nil
}
