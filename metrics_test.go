package credcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricTokenIssued)

	if got := m.Value(MetricTokenIssued); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricTokenIssued)
	m.Observe(MetricFetchLatency, time.Millisecond)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil metrics must report disabled")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricTokenIssued)
	m.Inc(MetricTokenIssued)
	m.Inc(MetricTokenIssued)

	if got := m.Value(MetricTokenIssued); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricTokenAccepted)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricTokenAccepted); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		50 * time.Microsecond,
		time.Millisecond,
		5 * time.Millisecond,
		20 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricHashLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricHashLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricTokenIssued, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricTokenIssued]; ok {
		t.Fatal("counter id must not appear as a histogram")
	}
	if snap.Counters[MetricTokenIssued] != 0 {
		t.Fatalf("Observe must not touch counters, got %d", snap.Counters[MetricTokenIssued])
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricPasswordMatch)
	m.Inc(MetricPasswordMismatch)
	m.Inc(MetricPasswordMismatch)
	m.Observe(MetricFetchLatency, 80*time.Microsecond)

	snap := m.Snapshot()

	if snap.Counters[MetricPasswordMatch] != 1 {
		t.Fatalf("expected MetricPasswordMatch=1 got %d", snap.Counters[MetricPasswordMatch])
	}
	if snap.Counters[MetricPasswordMismatch] != 2 {
		t.Fatalf("expected MetricPasswordMismatch=2 got %d", snap.Counters[MetricPasswordMismatch])
	}
	if _, ok := snap.Counters[MetricFetchLatency]; ok {
		t.Fatal("histogram ids must not appear in counters")
	}
	if len(snap.Histograms[MetricFetchLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricFetchLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricFetchLatency][0])
	}
}

func TestMetricsLatencyRequiresEnabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false, EnableLatencyHistograms: true})
	if m.LatencyEnabled() {
		t.Fatal("latency histograms must stay off while metrics are disabled")
	}
}
