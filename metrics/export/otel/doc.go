// Package otel provides OpenTelemetry metric bindings for credcore counters and
// histograms.
//
// [NewExporter] registers an Int64ObservableCounter for each credcore counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads
// [credcore.TokenBackend.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate backend state.
package otel
