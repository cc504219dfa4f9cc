package runloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

// fakeSource yields a fixed number of frames of fixed size, then reports
// "no packet available" forever.
type fakeSource struct {
	mu        sync.Mutex
	remaining int
	frameLen  int
}

func (f *fakeSource) SetFilter(string) error { return nil }

func (f *fakeSource) Read() ([]byte, time.Time, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remaining <= 0 {
		return nil, time.Time{}, core.MonotonicNS(), nil
	}
	f.remaining--
	return make([]byte, f.frameLen), time.Now(), core.MonotonicNS(), nil
}

func (f *fakeSource) Drops() (uint64, error) { return 0, nil }
func (f *fakeSource) Close() error           { return nil }

type fakeQueue struct {
	mu    sync.Mutex
	count int
}

func (q *fakeQueue) Enqueue(rec *core.PacketRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.count++
	return nil
}

func TestRunCapturesDuringMeasureWindow(t *testing.T) {
	src := &fakeSource{remaining: 20, frameLen: 128}
	q := &fakeQueue{}
	m := metrics.New()

	cfg := Config{WarmupSec: 0, MeasureSec: 1}
	res := Run(context.Background(), src, q, m, cfg, nil)

	if res.FinalState != StateDone {
		t.Fatalf("expected StateDone, got %v", res.FinalState)
	}
	if res.Interrupted {
		t.Fatal("expected a clean (non-interrupted) run")
	}

	snap := m.Snapshot()
	if snap.PktsCaptured == 0 {
		t.Fatal("expected at least one packet captured during the measure window")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count != int(snap.PktsCaptured) {
		t.Fatalf("enqueue count %d does not match pkts_captured %d", q.count, snap.PktsCaptured)
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	src := &fakeSource{remaining: 0, frameLen: 64}
	q := &fakeQueue{}
	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{WarmupSec: 0, MeasureSec: 300}
	start := time.Now()
	res := Run(ctx, src, q, m, cfg, nil)
	elapsed := time.Since(start)

	if !res.Interrupted {
		t.Fatal("expected Interrupted=true on a pre-cancelled context")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("Run took too long to react to cancellation: %v", elapsed)
	}
}

func TestRunUnlimitedMeasureStopsOnMaxPackets(t *testing.T) {
	src := &fakeSource{remaining: 1000, frameLen: 64}
	q := &fakeQueue{}
	m := metrics.New()

	cfg := Config{WarmupSec: 0, MeasureSec: 0, MaxPackets: 10}
	start := time.Now()
	res := Run(context.Background(), src, q, m, cfg, nil)
	elapsed := time.Since(start)

	if res.Interrupted {
		t.Fatal("expected a clean (non-interrupted) run")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("unlimited measure window with MaxPackets took too long: %v", elapsed)
	}

	snap := m.Snapshot()
	if snap.PktsCaptured < 10 {
		t.Fatalf("expected at least 10 packets captured, got %d", snap.PktsCaptured)
	}
}

func TestRunLeavesMetricsStartedWithPositiveCaptureElapsed(t *testing.T) {
	src := &fakeSource{remaining: 5, frameLen: 64}
	q := &fakeQueue{}
	m := metrics.New()

	cfg := Config{WarmupSec: 0, MeasureSec: 1}
	Run(context.Background(), src, q, m, cfg, nil)

	if !m.IsActive() {
		t.Fatal("expected metrics to remain active (started) after a completed run")
	}
	snap := m.Snapshot()
	if snap.CaptureElapsedSec <= 0 {
		t.Fatal("expected a positive capture_elapsed_sec after a completed run")
	}
}
