package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected sample rate error")
	}
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordDispatch(ctx, "bank", "account/deposit", StatusOK, time.Millisecond)
	m.RecordDispatch(ctx, "bank", "account/withdraw", StatusOK, time.Millisecond)
	m.RecordFetch(ctx, "getPokemonByName", StatusError, 10*time.Millisecond)
	m.RecordCacheLookup(ctx, "getPokemonByName", false)
	m.RecordCacheLookup(ctx, "getPokemonByName", true)
	m.RecordCacheLookup(ctx, "getPokemonByName", true)
	m.AddSubscribers(ctx, "getPokemonByName", 2)
	m.AddSubscribers(ctx, "getPokemonByName", -1)
	m.RecordError(ctx, "rejected", "query")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	tests := map[string]int64{
		"store.dispatch.total": 2,
		"query.fetch.total":    1,
		"query.cache.lookups":  3,
		"query.subscribers":    1,
		"error.total":          1,
	}
	for name, want := range tests {
		if got := sumOf(t, rm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestStartSpanAndSetSpanError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, span := StartSpan(context.Background(), SpanQueryFetch)
	SetSpanError(span, errors.New("boom"))
	SetSpanError(span, nil)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != SpanQueryFetch {
		t.Errorf("span name = %s", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("span status = %v", ended[0].Status())
	}
}

func TestServiceHealthAggregation(t *testing.T) {
	sh := NewServiceHealth("statekitd", "1.0.0")
	sh.AddComponent(Health{Name: "store", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Fatalf("status = %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "redis", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Fatalf("status = %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "query", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "sse", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown || sh.Serving() {
		t.Fatalf("down must win, got %s", sh.Status)
	}
}
