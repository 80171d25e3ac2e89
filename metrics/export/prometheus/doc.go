// Package prometheus exposes engine counters and latency histograms through
// github.com/prometheus/client_golang.
//
// [Exporter] is a prom.Collector that reads [tyadmin.Engine.MetricsSnapshot] on each
// scrape. Register it on your own registry, or mount [Exporter.Handler], which serves a
// private registry. Counter names are prefixed tyadmin_*_total.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
