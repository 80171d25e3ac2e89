// Package otel binds engine counters and latency histograms to OpenTelemetry observable
// instruments.
//
// Each engine counter becomes an Int64ObservableCounter. Each latency histogram becomes
// two gauges: <name>_bucket carries one cumulative point per upper bound, keyed by the
// "le" attribute, and <name>_count carries the sample total. A single callback reads
// [tyadmin.Engine.MetricsSnapshot] on every collection cycle.
//
// The caller owns the MeterProvider.
package otel
