package provider

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/statekit/observability"
)

// WithMetrics records fetch count, duration and errors per provider name.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)

	status := observability.StatusOK
	switch {
	case errors.Is(err, context.Canceled):
		status = observability.StatusCancelled
	case err != nil:
		status = observability.StatusError
		m.metrics.RecordError(ctx, "fetch", m.inner.Name())
	}
	m.metrics.RecordFetch(ctx, m.inner.Name(), status, time.Since(start))
	return output, err
}
