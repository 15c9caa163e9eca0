package provider

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/statekit/observability"
)

// WithTracing wraps each Execute call in a query.fetch span tagged with the
// provider name.
func WithTracing[I, O any]() Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &tracingRR[I, O]{inner: inner}
	}
}

type tracingRR[I, O any] struct {
	inner RequestResponse[I, O]
}

func (t *tracingRR[I, O]) Name() string                         { return t.inner.Name() }
func (t *tracingRR[I, O]) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanQueryFetch,
		attribute.String(observability.AttrEndpoint, t.inner.Name()))
	defer span.End()

	output, err := t.inner.Execute(ctx, input)
	if err != nil {
		observability.SetSpanError(span, err)
	}
	return output, err
}
