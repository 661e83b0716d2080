// Package otel mirrors sessiongate engine metrics into OpenTelemetry
// observable instruments.
//
// [New] registers an Int64ObservableCounter per engine counter and, for
// the authenticate latency histogram, a cumulative bucket gauge keyed by an
// "le" attribute plus a count gauge. A single callback reads
// [sessiongate.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
