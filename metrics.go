package credgate

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by credgate APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricAuthenticateSuccess is an exported constant or variable used by the credential engine.
	MetricAuthenticateSuccess MetricID = iota
	// MetricAuthenticateFailure is an exported constant or variable used by the credential engine.
	MetricAuthenticateFailure
	// MetricAccessIssued is an exported constant or variable used by the credential engine.
	MetricAccessIssued
	// MetricRenewalIssued is an exported constant or variable used by the credential engine.
	MetricRenewalIssued
	// MetricIssueRetry is an exported constant or variable used by the credential engine.
	MetricIssueRetry
	// MetricIssueFailed is an exported constant or variable used by the credential engine.
	MetricIssueFailed
	// MetricVerifySuccess is an exported constant or variable used by the credential engine.
	MetricVerifySuccess
	// MetricVerifyFailure is an exported constant or variable used by the credential engine.
	MetricVerifyFailure
	// MetricRotateSuccess is an exported constant or variable used by the credential engine.
	MetricRotateSuccess
	// MetricRotateFailure is an exported constant or variable used by the credential engine.
	MetricRotateFailure
	// MetricRotateReuse is an exported constant or variable used by the credential engine.
	MetricRotateReuse
	// MetricSessionsRevoked is an exported constant or variable used by the credential engine.
	MetricSessionsRevoked
	// MetricClientAuthSuccess is an exported constant or variable used by the credential engine.
	MetricClientAuthSuccess
	// MetricClientAuthFailure is an exported constant or variable used by the credential engine.
	MetricClientAuthFailure
	// MetricClientSecretPlaintext is an exported constant or variable used by the credential engine.
	MetricClientSecretPlaintext
	// MetricVerifyLatency is an exported constant or variable used by the credential engine.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by credgate APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by credgate APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments a counter. Out-of-range ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a verify-path latency sample. Only MetricVerifyLatency
// carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a point-in-time deep copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 25000:
		return 6
	default:
		return 7
	}
}
