package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
)

// Chain composes middleware into one; Chain(a, b)(api, next) is
// a(api, b(api, next)).
func Chain[S any](mws ...Middleware[S]) Middleware[S] {
	return func(api API[S], next DispatchFunc) DispatchFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](api, next)
		}
		return next
	}
}

// Logging logs every dispatched action type at debug and failures at warn.
func Logging[S any](log *logger.Logger) Middleware[S] {
	return func(_ API[S], next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			start := time.Now()
			err := next(ctx, action)
			fields := logger.Fields(
				logger.FieldAction, action.Type(),
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.WithContext(ctx).Warn("dispatch failed", fields)
				return err
			}
			log.WithContext(ctx).Debug("action dispatched", fields)
			return nil
		}
	}
}

// Metrics records one dispatch measurement per action under storeName.
func Metrics[S any](metrics *observability.Metrics, storeName string) Middleware[S] {
	return func(_ API[S], next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			start := time.Now()
			err := next(ctx, action)
			status := observability.StatusOK
			if err != nil {
				status = observability.StatusError
				metrics.RecordError(ctx, "dispatch", storeName)
			}
			metrics.RecordDispatch(ctx, storeName, action.Type(), status, time.Since(start))
			return err
		}
	}
}

// Tracing wraps each dispatch in a span. Thunks get their own span name so
// the actions they dispatch show up as children.
func Tracing[S any]() Middleware[S] {
	return func(_ API[S], next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			name := observability.SpanDispatch
			if _, ok := action.(thunkAction); ok {
				name = observability.SpanThunk
			}
			ctx, span := observability.StartSpan(ctx, name,
				attribute.String(observability.AttrActionType, action.Type()))
			defer span.End()

			err := next(ctx, action)
			observability.SetSpanError(span, err)
			return err
		}
	}
}

// Recorder appends every action that reaches it. Tests put it last in the
// chain to observe what the reducer saw.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
}

// RecordTo returns middleware appending to r.
func RecordTo[S any](r *Recorder) Middleware[S] {
	return func(_ API[S], next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			r.mu.Lock()
			r.actions = append(r.actions, action)
			r.mu.Unlock()
			return next(ctx, action)
		}
	}
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}

// Types returns the recorded action types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.actions))
	for i, a := range r.actions {
		types[i] = a.Type()
	}
	return types
}
