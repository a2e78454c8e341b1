// Package prometheus exposes credcore metrics as a Prometheus collector.
//
// [NewExporter] accepts a [credcore.TokenBackend]. The returned [Exporter] can be
// registered with any prometheus.Registerer, or mounted directly through
// [Exporter.Handler]. Counter names are prefixed credcore_*_total; the histograms are
// credcore_password_hash_latency_seconds and credcore_token_fetch_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate backend state.
package prometheus
