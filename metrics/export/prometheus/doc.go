// Package prometheus exposes sessiongate engine metrics through
// prometheus/client_golang.
//
// [Collector] reads [sessiongate.Engine.MetricsSnapshot] on every scrape.
// Counter names are sessiongate_*_total and the single histogram is
// sessiongate_authenticate_latency_seconds. [Handler] serves them from a
// private registry.
//
// # What this package must NOT do
//
//   - Register anything with the global Prometheus registry.
//   - Mutate engine state.
package prometheus
