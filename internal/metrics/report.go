package metrics

import (
	"encoding/json"
	"time"
)

// Metadata describes run configuration, not outcomes: it is set once before
// JSON emission and compared field-by-field during regression gating.
type Metadata struct {
	Interface      string `json:"interface"`
	Filter         string `json:"filter"`
	OS             string `json:"os"`
	GitSHA         string `json:"git_sha"`
	TrafficMode    string `json:"traffic_mode"`
	TrafficTarget  string `json:"traffic_target"`
	Threads        int    `json:"threads"`
	BPFBufferSize  int    `json:"bpf_buffer_size"`
	DurationSec    int    `json:"duration_sec"`
	WarmupSec      int    `json:"warmup_sec"`
	TrafficRate    int    `json:"traffic_rate"`
}

// Report is the top-level JSON document emitted at run completion, per the
// layout spec.md §4.8 defines.
type Report struct {
	Timestamp         string  `json:"timestamp"`
	ElapsedSec        float64 `json:"elapsed_sec"`
	CaptureElapsedSec float64 `json:"capture_elapsed_sec"`

	Packets struct {
		Captured  uint64  `json:"captured"`
		Processed uint64  `json:"processed"`
		RatePPS   float64 `json:"rate_pps"`
	} `json:"packets"`

	Bytes struct {
		Captured  uint64  `json:"captured"`
		Processed uint64  `json:"processed"`
		RateMbps  float64 `json:"rate_mbps"`
	} `json:"bytes"`

	Errors struct {
		ParseErrors      uint64 `json:"parse_errors"`
		ChecksumFailures uint64 `json:"checksum_failures"`
		QueueDrops       uint64 `json:"queue_drops"`
		CaptureDrops     uint64 `json:"capture_drops"`
	} `json:"errors"`

	EtherType struct {
		IPv4  uint64 `json:"ipv4"`
		IPv6  uint64 `json:"ipv6"`
		ARP   uint64 `json:"arp"`
		Other uint64 `json:"other"`
	} `json:"ethertype"`

	Protocols struct {
		TCP   uint64 `json:"tcp"`
		UDP   uint64 `json:"udp"`
		ICMP  uint64 `json:"icmp"`
		Other uint64 `json:"other"`
	} `json:"protocols"`

	Queue struct {
		DepthMax uint32 `json:"depth_max"`
	} `json:"queue"`

	LatencyNS struct {
		Count uint64  `json:"count"`
		Sum   uint64  `json:"sum"`
		Avg   float64 `json:"avg"`
		Max   uint64  `json:"max"`
		P50   float64 `json:"p50"`
		P95   float64 `json:"p95"`
		P99   float64 `json:"p99"`
	} `json:"latency_ns"`

	LatencyHistogram [HistogramBuckets]uint64 `json:"latency_histogram"`

	Metadata Metadata `json:"metadata"`
}

// BuildReport converts a snapshot plus run metadata into the emittable
// Report document. Rates are derived from CaptureElapsedSec, not
// ElapsedSec, so drain time never dilutes throughput.
func BuildReport(s Snapshot, meta Metadata, now time.Time) Report {
	var r Report
	r.Timestamp = now.UTC().Format(time.RFC3339)
	r.ElapsedSec = s.ElapsedSec
	r.CaptureElapsedSec = s.CaptureElapsedSec

	elapsed := s.CaptureElapsedSec
	if elapsed <= 0 {
		elapsed = 1e-3
	}

	r.Packets.Captured = s.PktsCaptured
	r.Packets.Processed = s.PktsProcessed
	r.Packets.RatePPS = float64(s.PktsProcessed) / elapsed

	r.Bytes.Captured = s.BytesCaptured
	r.Bytes.Processed = s.BytesProcessed
	r.Bytes.RateMbps = (float64(s.BytesProcessed) * 8) / (elapsed * 1e6)

	r.Errors.ParseErrors = s.ParseErrors
	r.Errors.ChecksumFailures = s.ChecksumFailures
	r.Errors.QueueDrops = s.QueueDrops
	r.Errors.CaptureDrops = s.CaptureDrops

	r.EtherType.IPv4 = s.EtherIPv4
	r.EtherType.IPv6 = s.EtherIPv6
	r.EtherType.ARP = s.EtherARP
	r.EtherType.Other = s.EtherOther

	r.Protocols.TCP = s.ProtoTCP
	r.Protocols.UDP = s.ProtoUDP
	r.Protocols.ICMP = s.ProtoICMP
	r.Protocols.Other = s.ProtoOther

	r.Queue.DepthMax = s.QueueDepthMax

	r.LatencyNS.Count = s.LatencyCount
	r.LatencyNS.Sum = s.LatencySumNS
	r.LatencyNS.Avg = s.LatencyAvgNS()
	r.LatencyNS.Max = s.LatencyMaxNS
	r.LatencyNS.P50 = s.Percentile(0.50)
	r.LatencyNS.P95 = s.Percentile(0.95)
	r.LatencyNS.P99 = s.Percentile(0.99)

	r.LatencyHistogram = s.Histogram
	r.Metadata = meta

	return r
}

// MarshalIndent renders the report with stable, indented formatting suitable
// for both CI artifacts and human inspection.
func (r Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
