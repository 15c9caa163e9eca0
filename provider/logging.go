package provider

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/statekit/logger"
)

// WithLogging logs every Execute call with its duration. Failures are logged
// at warn; cancellations at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{inner: inner, log: log.WithComponent("provider")}
	}
}

type loggingRR[I, O any] struct {
	inner RequestResponse[I, O]
	log   *logger.Logger
}

func (l *loggingRR[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingRR[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)

	fields := logger.DurationFields("execute", time.Since(start))
	fields[logger.FieldEndpoint] = l.inner.Name()
	switch {
	case err == nil:
		l.log.WithContext(ctx).Debug("provider execute ok", fields)
	case errors.Is(err, context.Canceled):
		l.log.WithContext(ctx).Debug("provider execute cancelled", fields)
	default:
		fields[logger.FieldError] = err.Error()
		l.log.WithContext(ctx).Warn("provider execute failed", fields)
	}
	return output, err
}
