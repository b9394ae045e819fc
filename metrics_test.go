package authkeep

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("disabled snapshot should be empty, got %v", snap.Counters)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricTokensIssued)
	m.Inc(MetricTokensIssued)
	m.Inc(MetricTokensIssued)

	if got := m.Value(MetricTokensIssued); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	m.Inc(metricIDCount)
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
				m.Inc(MetricRateLimitAllowed)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRateLimitAllowed); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}
	for _, d := range observations {
		m.Observe(MetricAuthenticateLatency, d)
	}
	// Counters have no buckets.
	m.Observe(MetricLoginSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricAuthenticateLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotExcludesHistogramFromCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)
	m.Inc(MetricLoginFailure)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 1 || snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("unexpected counters %v", snap.Counters)
	}
	if _, ok := snap.Counters[MetricAuthenticateLatency]; ok {
		t.Fatal("histogram id must not appear among counters")
	}
	if _, ok := snap.Histograms[MetricAuthenticateLatency]; ok {
		t.Fatal("histogram must be absent when latency tracking is off")
	}
}

func TestRevocationObserverCounts(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	obs := revocationObserver{m: m}
	obs.TokenRevoked()
	obs.RevocationLookupFailed()
	obs.RevocationLookupFailed()

	if m.Value(MetricTokenRevoked) != 1 || m.Value(MetricRevocationLookupFailed) != 2 {
		t.Fatalf("unexpected counts revoked=%d failed=%d", m.Value(MetricTokenRevoked), m.Value(MetricRevocationLookupFailed))
	}
}
