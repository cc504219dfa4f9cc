// Package regression implements the baseline-comparison evaluator of
// spec §4.7: a lenient baseline reader, a must-match/advisory metadata gate,
// per-run regression detection, and the persistence rule that turns
// transient blips into an actionable verdict.
package regression

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

// Baseline is the subset of a prior run's report this evaluator needs,
// either read directly from the report or derived from related fields.
type Baseline struct {
	ElapsedSec   float64
	PPS          float64
	MBPS         float64
	P95NS        float64
	QueueDrops   uint64
	CaptureDrops uint64
	PktsCaptured uint64

	// Metadata is nil when the baseline document has no metadata object (a
	// metadata object that fails to decode makes Load return an error); the
	// compatibility gate treats nil as a single warning rather than a hard
	// mismatch, for legacy baselines.
	Metadata *metrics.Metadata
}

// docShape mirrors metrics.Report's JSON layout but with every leaf field
// optional, so a baseline missing keys this evaluator doesn't need (or
// written by an older version of the report) still loads.
type docShape struct {
	ElapsedSec        *float64 `json:"elapsed_sec"`
	CaptureElapsedSec *float64 `json:"capture_elapsed_sec"`

	Packets *struct {
		Captured  *uint64  `json:"captured"`
		Processed *uint64  `json:"processed"`
		RatePPS   *float64 `json:"rate_pps"`
	} `json:"packets"`

	Bytes *struct {
		Processed *uint64  `json:"processed"`
		RateMbps  *float64 `json:"rate_mbps"`
	} `json:"bytes"`

	Errors *struct {
		QueueDrops   *uint64 `json:"queue_drops"`
		CaptureDrops *uint64 `json:"capture_drops"`
	} `json:"errors"`

	LatencyNS *struct {
		P95 *float64 `json:"p95"`
	} `json:"latency_ns"`

	Metadata *metrics.Metadata `json:"metadata"`
}

// Load parses path as a lenient, shallow baseline document: missing
// top-level sections are simply absent, and rate fields are derived from
// processed counts and elapsed time when not present. Returns
// core.ErrBaselineInvalid if neither a positive pps nor a positive
// processed-packet count can be established.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("packet-analyzer: read baseline %s: %w", path, err)
	}

	var doc docShape
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("packet-analyzer: parse baseline %s: %w", path, err)
	}

	b := &Baseline{Metadata: doc.Metadata}

	elapsed := 0.0
	if doc.ElapsedSec != nil {
		elapsed = *doc.ElapsedSec
	} else if doc.CaptureElapsedSec != nil {
		elapsed = *doc.CaptureElapsedSec
	}
	b.ElapsedSec = elapsed

	var processed uint64
	if doc.Packets != nil {
		if doc.Packets.Captured != nil {
			b.PktsCaptured = *doc.Packets.Captured
		}
		if doc.Packets.Processed != nil {
			processed = *doc.Packets.Processed
		}
		if doc.Packets.RatePPS != nil {
			b.PPS = *doc.Packets.RatePPS
		} else if elapsed > 0 {
			b.PPS = float64(processed) / elapsed
		}
	}

	if doc.Bytes != nil {
		if doc.Bytes.RateMbps != nil {
			b.MBPS = *doc.Bytes.RateMbps
		} else if doc.Bytes.Processed != nil && elapsed > 0 {
			b.MBPS = (float64(*doc.Bytes.Processed) * 8) / (elapsed * 1e6)
		}
	}

	if doc.Errors != nil {
		if doc.Errors.QueueDrops != nil {
			b.QueueDrops = *doc.Errors.QueueDrops
		}
		if doc.Errors.CaptureDrops != nil {
			b.CaptureDrops = *doc.Errors.CaptureDrops
		}
	}

	if doc.LatencyNS != nil && doc.LatencyNS.P95 != nil {
		b.P95NS = *doc.LatencyNS.P95
	}

	if b.PPS <= 0 && processed == 0 {
		return nil, core.ErrBaselineInvalid
	}

	return b, nil
}
