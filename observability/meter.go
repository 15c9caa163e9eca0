package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/statekit/logger"
)

// Status values recorded on operations.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// InitMeter installs an OTLP HTTP meter provider as the global provider.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config, service, version, environment string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(service, version, environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Info("meter initialized", logger.Fields(
		"service", service,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments shared by stores and query caches.
type Metrics struct {
	dispatchTotal    metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	fetchTotal       metric.Int64Counter
	fetchDuration    metric.Float64Histogram
	cacheLookups     metric.Int64Counter
	subscribers      metric.Int64UpDownCounter
	errorTotal       metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.dispatchTotal, err = meter.Int64Counter("store.dispatch.total",
		metric.WithDescription("Actions dispatched to a store")); err != nil {
		return nil, fmt.Errorf("creating store.dispatch.total counter: %w", err)
	}
	if m.dispatchDuration, err = meter.Float64Histogram("store.dispatch.duration",
		metric.WithDescription("Time to reduce an action and notify subscribers"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating store.dispatch.duration histogram: %w", err)
	}
	if m.fetchTotal, err = meter.Int64Counter("query.fetch.total",
		metric.WithDescription("Fetches started by the query cache")); err != nil {
		return nil, fmt.Errorf("creating query.fetch.total counter: %w", err)
	}
	if m.fetchDuration, err = meter.Float64Histogram("query.fetch.duration",
		metric.WithDescription("Duration of query cache fetches"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating query.fetch.duration histogram: %w", err)
	}
	if m.cacheLookups, err = meter.Int64Counter("query.cache.lookups",
		metric.WithDescription("Subscriptions answered from cache (hit) or by a new fetch (miss)")); err != nil {
		return nil, fmt.Errorf("creating query.cache.lookups counter: %w", err)
	}
	if m.subscribers, err = meter.Int64UpDownCounter("query.subscribers",
		metric.WithDescription("Live query cache subscriptions")); err != nil {
		return nil, fmt.Errorf("creating query.subscribers counter: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	return &m, nil
}

// RecordDispatch records one completed dispatch.
func (m *Metrics) RecordDispatch(ctx context.Context, store, actionType, status string, d time.Duration) {
	m.dispatchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", store),
		attribute.String("action", actionType),
		attribute.String("status", status),
	))
	m.dispatchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("store", store),
	))
}

// RecordFetch records one finished fetch for endpoint.
func (m *Metrics) RecordFetch(ctx context.Context, endpoint, status string, d time.Duration) {
	m.fetchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
	m.fetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
	))
}

// RecordCacheLookup records whether a subscription found a usable entry.
func (m *Metrics) RecordCacheLookup(ctx context.Context, endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("result", result),
	))
}

// AddSubscribers adjusts the live subscriber gauge by delta.
func (m *Metrics) AddSubscribers(ctx context.Context, endpoint string, delta int64) {
	m.subscribers.Add(ctx, delta, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
