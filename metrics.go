package tyadmin

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or latency histogram.
type MetricID uint16

const (
	MetricSessionIssued MetricID = iota
	MetricSessionIssueFailure
	MetricValidateValid
	MetricValidateExpired
	MetricValidateUnknown
	MetricValidateStoreFailure
	MetricSessionRefreshed
	MetricSessionRefreshFailure
	MetricLogout
	MetricAuthorizationGranted
	MetricAuthorizationDenied
	MetricCredentialHit
	MetricCredentialMiss
	MetricCredentialFetch
	MetricCredentialFetchFailure
	MetricCredentialInvalidated
	MetricCredentialStaleRetry

	// Histograms.
	MetricValidateLatency
	MetricCredentialFetchLatency
	metricIDCount
)

const (
	firstHistogramID = MetricValidateLatency
	counterCount     = int(firstHistogramID)
	histogramCount   = int(metricIDCount - firstHistogramID)

	histBucketCount = 8
	cacheLineSize   = 64
)

// latencyBoundsMs are the inclusive upper bounds of the finite histogram buckets. Samples
// are truncated to whole milliseconds before bucketing.
var latencyBoundsMs = [histBucketCount - 1]int64{5, 10, 25, 50, 100, 250, 500}

type paddedCounter struct {
	atomic.Uint64
	_ [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters and latency histograms.
//
// Counters are padded to a cache line each so hot-path increments from different
// goroutines do not contend.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [counterCount]paddedCounter
	histograms    [histogramCount][histBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram buckets are
// non-cumulative, in the order of the 5ms..500ms,+Inf bounds.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id. It is a no-op when metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= firstHistogramID {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in histogram id. Counter ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id < firstHistogramID || id >= metricIDCount {
		return
	}
	m.histograms[id-firstHistogramID][bucketIndex(d)].Add(1)
}

// Value reads counter id; histogram ids read as zero.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= firstHistogramID {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for i := range m.counters {
		s.Counters[MetricID(i)] = m.counters[i].Load()
	}
	if !m.enableLatency {
		return s
	}
	for h := range m.histograms {
		buckets := make([]uint64, histBucketCount)
		for b := range buckets {
			buckets[b] = m.histograms[h][b].Load()
		}
		s.Histograms[firstHistogramID+MetricID(h)] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range latencyBoundsMs {
		if ms <= bound {
			return i
		}
	}
	return len(latencyBoundsMs)
}
