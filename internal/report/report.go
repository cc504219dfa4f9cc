// Package report renders metrics snapshots for human consumption: a
// one-line summary, a periodic ticker that prints it on an interval, and a
// JSON snapshot writer for --metrics-json and the multi-run controller's
// per-run files. Grounded on the teacher's CaptureStats.PrintStats/
// StartStatsMonitor idiom (print-on-ticker over a shared stats object),
// adapted to this system's snapshot/report types.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

// OneLiner formats a snapshot as a single human-readable status line.
func OneLiner(snap metrics.Snapshot) string {
	elapsed := snap.CaptureElapsedSec
	if elapsed < 1e-3 {
		elapsed = 1e-3
	}
	pps := float64(snap.PktsProcessed) / elapsed
	mbps := (float64(snap.BytesProcessed) * 8) / (elapsed * 1e6)

	return fmt.Sprintf(
		"captured=%d processed=%d pps=%.1f mbps=%.2f queue_drops=%d capture_drops=%d p95=%.0fns queue_depth_max=%d",
		snap.PktsCaptured, snap.PktsProcessed, pps, mbps,
		snap.QueueDrops, snap.CaptureDrops, snap.Percentile(0.95), snap.QueueDepthMax,
	)
}

// PrintOneLiner writes OneLiner's output to w, followed by a newline.
func PrintOneLiner(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintln(w, OneLiner(snap))
}

// Ticker prints a one-liner on a fixed interval until ctx is done, the same
// shape as the teacher's StartStatsMonitor: a ticker goroutine selecting
// between its own tick and the caller's cancellation.
type Ticker struct {
	m        *metrics.Metrics
	w        io.Writer
	interval time.Duration
	stopped  chan struct{}
}

// NewTicker constructs a Ticker; interval <= 0 disables it (Start becomes a
// no-op), matching --stats-interval 0 meaning "disabled."
func NewTicker(m *metrics.Metrics, w io.Writer, interval time.Duration) *Ticker {
	return &Ticker{m: m, w: w, interval: interval}
}

// Start begins printing on the configured interval in a background
// goroutine. It returns immediately; the goroutine exits when ctx is done.
func (t *Ticker) Start(ctx context.Context) {
	if t.interval <= 0 {
		return
	}
	t.stopped = make(chan struct{})

	ticker := time.NewTicker(t.interval)
	go func() {
		defer ticker.Stop()
		defer close(t.stopped)
		for {
			select {
			case <-ticker.C:
				PrintOneLiner(t.w, t.m.Snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until the ticker goroutine has exited. Safe to call even if
// Start was a no-op (interval <= 0).
func (t *Ticker) Wait() {
	if t.stopped == nil {
		return
	}
	<-t.stopped
}

// JSONWriter persists a snapshot, wrapped with the given metadata, as an
// indented JSON document. It satisfies multirun.JSONWriter.
type JSONWriter struct {
	Meta metrics.Metadata
}

// WriteSnapshot builds a Report from snap and Meta and writes it to path.
func (j JSONWriter) WriteSnapshot(path string, snap metrics.Snapshot) error {
	report := metrics.BuildReport(snap, j.Meta, time.Now())
	data, err := report.MarshalIndent()
	if err != nil {
		return fmt.Errorf("packet-analyzer: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("packet-analyzer: write report %s: %w", path, err)
	}
	return nil
}
