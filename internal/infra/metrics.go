package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety. All methods accept a nil receiver.
type Metrics struct {
	// Counters
	entriesTotal    atomic.Uint64
	limitFills      atomic.Uint64
	marketFills     atomic.Uint64
	unfilledEntries atomic.Uint64
	submitRetries   atomic.Uint64
	cancelsOK       atomic.Uint64
	cancelRaces     atomic.Uint64
	cancelFailures  atomic.Uint64
	errorsTotal     atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEntry records a completed entry with its latency.
// orderType is LIMIT, MARKET or empty for an unfilled entry.
func (m *Metrics) RecordEntry(filled bool, orderType string, latencyNs int64) {
	if m == nil {
		return
	}
	m.entriesTotal.Add(1)
	switch {
	case !filled:
		m.unfilledEntries.Add(1)
	case orderType == "LIMIT":
		m.limitFills.Add(1)
	default:
		m.marketFills.Add(1)
	}
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordSubmitRetry records one extra submission attempt.
func (m *Metrics) RecordSubmitRetry() {
	if m == nil {
		return
	}
	m.submitRetries.Add(1)
}

// RecordCancel records a cancel outcome: CONFIRMED, ALREADY_GONE or FAILED.
func (m *Metrics) RecordCancel(outcome string) {
	if m == nil {
		return
	}
	switch outcome {
	case "CONFIRMED":
		m.cancelsOK.Add(1)
	case "ALREADY_GONE":
		m.cancelRaces.Add(1)
	default:
		m.cancelFailures.Add(1)
	}
}

// RecordError records a failed entry.
func (m *Metrics) RecordError() {
	if m == nil {
		return
	}
	m.errorsTotal.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EntriesTotal    uint64
	LimitFills      uint64
	MarketFills     uint64
	UnfilledEntries uint64
	SubmitRetries   uint64
	CancelsOK       uint64
	CancelRaces     uint64
	CancelFailures  uint64
	ErrorsTotal     uint64
	AvgLatencyNs    int64
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Timestamp: time.Now()}
	}
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EntriesTotal:    m.entriesTotal.Load(),
		LimitFills:      m.limitFills.Load(),
		MarketFills:     m.marketFills.Load(),
		UnfilledEntries: m.unfilledEntries.Load(),
		SubmitRetries:   m.submitRetries.Load(),
		CancelsOK:       m.cancelsOK.Load(),
		CancelRaces:     m.cancelRaces.Load(),
		CancelFailures:  m.cancelFailures.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		AvgLatencyNs:    avgLatency,
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.entriesTotal.Store(0)
	m.limitFills.Store(0)
	m.marketFills.Store(0)
	m.unfilledEntries.Store(0)
	m.submitRetries.Store(0)
	m.cancelsOK.Store(0)
	m.cancelRaces.Store(0)
	m.cancelFailures.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
}
