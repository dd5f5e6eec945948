package infra

import (
	"testing"
)

func TestMetrics_RecordEntry(t *testing.T) {
	m := &Metrics{}

	m.RecordEntry(true, "LIMIT", 1000)
	m.RecordEntry(true, "MARKET", 2000)
	m.RecordEntry(false, "", 3000)

	snap := m.Snapshot()

	if snap.EntriesTotal != 3 {
		t.Errorf("Expected 3 entries, got %d", snap.EntriesTotal)
	}
	if snap.LimitFills != 1 || snap.MarketFills != 1 || snap.UnfilledEntries != 1 {
		t.Errorf("Unexpected split: limit=%d market=%d unfilled=%d",
			snap.LimitFills, snap.MarketFills, snap.UnfilledEntries)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_RecordCancel(t *testing.T) {
	m := &Metrics{}

	m.RecordCancel("CONFIRMED")
	m.RecordCancel("ALREADY_GONE")
	m.RecordCancel("ALREADY_GONE")
	m.RecordCancel("FAILED")

	snap := m.Snapshot()
	if snap.CancelsOK != 1 {
		t.Errorf("Expected 1 confirmed cancel, got %d", snap.CancelsOK)
	}
	if snap.CancelRaces != 2 {
		t.Errorf("Expected 2 cancel races, got %d", snap.CancelRaces)
	}
	if snap.CancelFailures != 1 {
		t.Errorf("Expected 1 cancel failure, got %d", snap.CancelFailures)
	}
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	// Must not panic
	m.RecordEntry(true, "LIMIT", 10)
	m.RecordSubmitRetry()
	m.RecordCancel("FAILED")
	m.RecordError()

	if snap := m.Snapshot(); snap.EntriesTotal != 0 {
		t.Errorf("Expected empty snapshot, got %d entries", snap.EntriesTotal)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordEntry(true, "LIMIT", 1000)
	m.RecordError()
	m.RecordSubmitRetry()

	m.Reset()
	snap := m.Snapshot()

	if snap.EntriesTotal != 0 {
		t.Error("Expected 0 entries after reset")
	}
	if snap.ErrorsTotal != 0 {
		t.Error("Expected 0 errors after reset")
	}
	if snap.SubmitRetries != 0 {
		t.Error("Expected 0 retries after reset")
	}
}
