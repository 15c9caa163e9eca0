package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/provider"
)

func echo(name string) provider.RequestResponse[string, string] {
	return provider.Func(name, func(_ context.Context, in string) (string, error) {
		if in == "fail" {
			return "", errors.New("upstream down")
		}
		return "echo:" + in, nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return provider.Func(inner.Name(), func(ctx context.Context, in string) (string, error) {
				order = append(order, name+">")
				out, err := inner.Execute(ctx, in)
				order = append(order, "<"+name)
				return out, err
			})
		}
	}

	wrapped := provider.Chain(tag("A"), tag("B"))(echo("p"))
	out, err := wrapped.Execute(context.Background(), "x")
	if err != nil || out != "echo:x" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if got := strings.Join(order, " "); got != "A> B> <B <A" {
		t.Errorf("order = %s", got)
	}
	if wrapped.Name() != "p" {
		t.Errorf("name = %q", wrapped.Name())
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, "debug")
	wrapped := provider.WithLogging[string, string](log)(echo("getPokemonByName"))

	_, _ = wrapped.Execute(context.Background(), "pikachu")
	_, _ = wrapped.Execute(context.Background(), "fail")

	out := buf.String()
	if !strings.Contains(out, `"provider execute ok"`) || !strings.Contains(out, `"provider execute failed"`) {
		t.Fatalf("missing log lines: %s", out)
	}
	if !strings.Contains(out, `"endpoint":"getPokemonByName"`) || !strings.Contains(out, "upstream down") {
		t.Errorf("missing fields: %s", out)
	}
}

func TestWithMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	wrapped := provider.WithMetrics[string, string](m)(echo("getPokemons"))
	ctx := context.Background()
	_, _ = wrapped.Execute(ctx, "a")
	_, _ = wrapped.Execute(ctx, "fail")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[metric.Name] += dp.Value
				}
			}
		}
	}
	if counts["query.fetch.total"] != 2 || counts["error.total"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestWithTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	wrapped := provider.WithTracing[string, string]()(echo("getPokemonByName"))
	_, _ = wrapped.Execute(context.Background(), "fail")

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d", len(spans))
	}
	if spans[0].Name() != observability.SpanQueryFetch || spans[0].Status().Code != codes.Error {
		t.Errorf("span = %s status=%v", spans[0].Name(), spans[0].Status())
	}
}

func TestAdapt(t *testing.T) {
	backend := provider.Func("backend", func(_ context.Context, in string) (string, error) {
		return in + "0", nil
	})
	adapted := provider.Adapt(backend, "lengths",
		func(_ context.Context, n int) (string, error) {
			if n < 0 {
				return "", errors.New("negative")
			}
			return strconv.Itoa(n), nil
		},
		func(out string) (int, error) { return strconv.Atoi(out) },
	)

	if adapted.Name() != "lengths" || !adapted.IsAvailable(context.Background()) {
		t.Fatal("unexpected identity")
	}
	got, err := adapted.Execute(context.Background(), 4)
	if err != nil || got != 40 {
		t.Fatalf("got %d err %v", got, err)
	}
	if _, err := adapted.Execute(context.Background(), -1); err == nil {
		t.Error("mapIn error should propagate")
	}
}
