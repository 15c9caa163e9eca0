// Package observability wires OpenTelemetry metrics and tracing for statekit.
//
// Metrics instruments cover store dispatches, query cache fetches, cache
// lookups and live subscriber counts. InitMeter and InitTracer install OTLP
// HTTP exporters as the global providers; without them the instruments are
// backed by the otel no-op providers.
//
//	m, _ := observability.NewMetrics(observability.Meter("statekit"))
//	m.RecordDispatch(ctx, "bank", "account/deposit", observability.StatusOK, time.Since(start))
package observability
