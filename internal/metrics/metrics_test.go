package metrics

import (
	"testing"
)

func TestLifecycleIsActive(t *testing.T) {
	m := New()
	if m.IsActive() {
		t.Error("expected IsActive to be false before Start")
	}
	m.Start()
	if !m.IsActive() {
		t.Error("expected IsActive to be true after Start")
	}
	m.Reset()
	if m.IsActive() {
		t.Error("expected IsActive to be false after Reset")
	}
}

func TestIncEtherTypeAndProtocol(t *testing.T) {
	m := New()
	m.IncEtherType(EtherIPv4)
	m.IncEtherType(EtherIPv4)
	m.IncEtherType(EtherIPv6)
	m.IncEtherType(EtherARP)
	m.IncProtocol(ProtoTCP)
	m.IncProtocol(ProtoUDP)

	snap := m.Snapshot()
	if snap.EtherIPv4 != 2 {
		t.Errorf("EtherIPv4 = %d, want 2", snap.EtherIPv4)
	}
	if snap.EtherIPv6 != 1 {
		t.Errorf("EtherIPv6 = %d, want 1", snap.EtherIPv6)
	}
	if snap.EtherARP != 1 {
		t.Errorf("EtherARP = %d, want 1", snap.EtherARP)
	}
	if snap.ProtoTCP != 1 || snap.ProtoUDP != 1 {
		t.Errorf("ProtoTCP=%d ProtoUDP=%d, want 1 and 1", snap.ProtoTCP, snap.ProtoUDP)
	}
}

func TestQueueDepthMaxWatermark(t *testing.T) {
	m := New()
	m.UpdateQueueDepthMax(3)
	m.UpdateQueueDepthMax(1)
	m.UpdateQueueDepthMax(5)
	m.UpdateQueueDepthMax(2)

	if got := m.Snapshot().QueueDepthMax; got != 5 {
		t.Errorf("QueueDepthMax = %d, want 5", got)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		latencyNS int64
		want      int
	}{
		{0, 0},
		{999, 0},             // < 1us
		{1000, 0},            // exactly 1us -> u=1 -> floor(log2(1))=0
		{2000, 1},            // 2us -> bucket 1
		{1 << 20 * 1000, 20}, // 2^20 us exactly -> bucket 20, not 19
		{5_000_000_000_000, HistogramBuckets - 1}, // far beyond 2^31 us -> clipped to overflow bucket
	}

	for _, c := range cases {
		got := bucketIndex(c.latencyNS)
		if got != c.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", c.latencyNS, got, c.want)
		}
	}
}

func TestObserveLatencyHistogramTotal(t *testing.T) {
	m := New()
	latencies := []int64{500, 1500, 3000, 9000, 2_000_000_000}
	for _, l := range latencies {
		m.ObserveLatency(l)
	}

	snap := m.Snapshot()
	if snap.LatencyCount != uint64(len(latencies)) {
		t.Errorf("LatencyCount = %d, want %d", snap.LatencyCount, len(latencies))
	}

	var total uint64
	for _, c := range snap.Histogram {
		total += c
	}
	if total != snap.LatencyCount {
		t.Errorf("histogram total = %d, want %d", total, snap.LatencyCount)
	}
}

func TestPercentileMonotonic(t *testing.T) {
	m := New()
	for i := int64(1); i <= 100; i++ {
		m.ObserveLatency(i * 1000)
	}
	snap := m.Snapshot()

	p0 := snap.Percentile(0.0)
	p50 := snap.Percentile(0.5)
	p95 := snap.Percentile(0.95)
	p100 := snap.Percentile(1.0)

	if !(p0 <= p50 && p50 <= p95 && p95 <= p100) {
		t.Errorf("percentiles not monotonic: p0=%v p50=%v p95=%v p100=%v", p0, p50, p95, p100)
	}
}

func TestPercentileEmptyHistogram(t *testing.T) {
	m := New()
	snap := m.Snapshot()
	if got := snap.Percentile(0.95); got != 0 {
		t.Errorf("Percentile on empty snapshot = %v, want 0", got)
	}
}

func TestCaptureElapsedNeverExceedsElapsed(t *testing.T) {
	m := New()
	m.Start()
	m.StopCapture()
	snap := m.Snapshot()
	if snap.CaptureElapsedSec > snap.ElapsedSec {
		t.Errorf("CaptureElapsedSec (%v) > ElapsedSec (%v)", snap.CaptureElapsedSec, snap.ElapsedSec)
	}
}
