package prometheus

import (
	"net/http"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/GitHub-GodOne/ty-admin-sub001/metrics/export/internaldefs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSource is satisfied by *tyadmin.Engine.
type MetricsSource interface {
	MetricsSnapshot() tyadmin.MetricsSnapshot
	AuditDropped() uint64
	AuditSinkPanics() uint64
}

type counterDesc struct {
	id   tyadmin.MetricID
	desc *prom.Desc
}

// Exporter converts engine snapshots into Prometheus const metrics at scrape time.
type Exporter struct {
	source       MetricsSource
	counters     []counterDesc
	histograms   []counterDesc
	auditDropped *prom.Desc
	sinkPanics   *prom.Desc
}

// NewExporter creates an exporter that reads from engine.
func NewExporter(engine *tyadmin.Engine) *Exporter {
	return NewExporterFromSource(engine)
}

func NewExporterFromSource(source MetricsSource) *Exporter {
	e := &Exporter{
		source:       source,
		counters:     make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms:   make([]counterDesc, 0, len(internaldefs.HistogramDefs)),
		auditDropped: prom.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
		sinkPanics:   prom.NewDesc(internaldefs.AuditSinkPanicsName, internaldefs.AuditSinkPanicsHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counters = append(e.counters, counterDesc{id: def.ID, desc: prom.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histograms = append(e.histograms, counterDesc{id: def.ID, desc: prom.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return e
}

func (e *Exporter) Describe(ch chan<- *prom.Desc) {
	for _, c := range e.counters {
		ch <- c.desc
	}
	for _, h := range e.histograms {
		ch <- h.desc
	}
	ch <- e.auditDropped
	ch <- e.sinkPanics
}

// Collect emits nothing while the engine has metrics disabled and the audit dispatcher
// has lost nothing.
func (e *Exporter) Collect(ch chan<- prom.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	panics := e.source.AuditSinkPanics()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 && panics == 0 {
		return
	}

	for _, c := range e.counters {
		ch <- prom.MustNewConstMetric(c.desc, prom.CounterValue, float64(snapshot.Counters[c.id]))
	}

	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[i]
		}
		// Snapshots carry bucket counts only; the sum is not tracked.
		ch <- prom.MustNewConstHistogram(h.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prom.MustNewConstMetric(e.auditDropped, prom.CounterValue, float64(dropped))
	ch <- prom.MustNewConstMetric(e.sinkPanics, prom.CounterValue, float64(panics))
}

// Handler serves this exporter from a private registry.
func (e *Exporter) Handler() http.Handler {
	reg := prom.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
