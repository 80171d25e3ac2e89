package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/GitHub-GodOne/ty-admin-sub001/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// BucketBoundKey is the attribute carrying a bucket's upper bound on histogram gauges.
const BucketBoundKey = "le"

// MetricsSource is satisfied by *tyadmin.Engine.
type MetricsSource interface {
	MetricsSnapshot() tyadmin.MetricsSnapshot
	AuditDropped() uint64
	AuditSinkPanics() uint64
}

// bucketSeries is one latency histogram reported as a cumulative gauge per bound plus a
// sample count.
type bucketSeries struct {
	id      tyadmin.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter keeps the callback registration alive until Close.
type Exporter struct {
	source       MetricsSource
	registration metric.Registration

	counters     map[tyadmin.MetricID]metric.Int64ObservableCounter
	series       []bucketSeries
	bounds       [internaldefs.BucketCount]metric.MeasurementOption
	auditDropped metric.Int64ObservableCounter
	sinkPanics   metric.Int64ObservableCounter
}

func NewExporter(meter metric.Meter, engine *tyadmin.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

func NewExporterFromSource(meter metric.Meter, source MetricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make(map[tyadmin.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	for i := range e.bounds {
		e.bounds[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String(BucketBoundKey, boundLabel(i))))
	}

	var observables []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("otel: counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = ins
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("otel: histogram %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Sample count."))
		if err != nil {
			return nil, fmt.Errorf("otel: histogram %s: %w", def.Name, err)
		}
		e.series = append(e.series, bucketSeries{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("otel: counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	panics, err := meter.Int64ObservableCounter(internaldefs.AuditSinkPanicsName,
		metric.WithDescription(internaldefs.AuditSinkPanicsHelp))
	if err != nil {
		return nil, fmt.Errorf("otel: counter %s: %w", internaldefs.AuditSinkPanicsName, err)
	}
	e.auditDropped, e.sinkPanics = dropped, panics
	observables = append(observables, dropped, panics)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("otel: register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snap.Counters[id]))
	}
	for _, s := range e.series {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[s.id]))
		for i, total := range cumulative {
			o.ObserveInt64(s.buckets, int64(total), e.bounds[i])
		}
		o.ObserveInt64(s.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	o.ObserveInt64(e.sinkPanics, int64(e.source.AuditSinkPanics()))
	return nil
}

// boundLabel renders bucket i's upper bound the way Prometheus writes le labels.
func boundLabel(i int) string {
	if i >= len(internaldefs.HistogramUpperBounds) {
		return "+Inf"
	}
	return strconv.FormatFloat(internaldefs.HistogramUpperBounds[i], 'g', -1, 64)
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
