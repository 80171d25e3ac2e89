// Package internaldefs holds the metric names, help strings and bucket bounds shared by
// the exporter packages, so Prometheus and OTel expose identical series.
//
// Changes here affect every exporter at once.
package internaldefs
