package metrics

import "math"

// Snapshot is a point-in-time, non-atomic copy of Metrics. Each field is
// read with its own atomic load in a single pass; fields are intentionally
// not synchronized against each other, so a pair of counters observed in the
// same snapshot may disagree by events in flight. Reporters and the
// regression evaluator treat a snapshot as approximate, never exact.
type Snapshot struct {
	SnapshotTimeNS    int64
	ElapsedSec        float64
	CaptureElapsedSec float64

	PktsCaptured   uint64
	PktsProcessed  uint64
	BytesCaptured  uint64
	BytesProcessed uint64

	ParseErrors      uint64
	ChecksumFailures uint64
	QueueDrops       uint64
	CaptureDrops     uint64

	EtherIPv4  uint64
	EtherIPv6  uint64
	EtherARP   uint64
	EtherOther uint64

	ProtoTCP   uint64
	ProtoUDP   uint64
	ProtoICMP  uint64
	ProtoOther uint64

	QueueDepthMax uint32

	LatencyCount uint64
	LatencySumNS uint64
	LatencyMaxNS uint64
	Histogram    [HistogramBuckets]uint64
}

// Snapshot takes a tear-consistent copy of the current counters. elapsed_sec
// and capture_elapsed_sec are both zero if the run has not been started.
func (m *Metrics) Snapshot() Snapshot {
	now := monotonicNS()
	start := m.startTimeNS.Load()
	captureEnd := m.captureEndTimeNS.Load()

	s := Snapshot{
		SnapshotTimeNS:   now,
		PktsCaptured:     m.pktsCaptured.Load(),
		PktsProcessed:    m.pktsProcessed.Load(),
		BytesCaptured:    m.bytesCaptured.Load(),
		BytesProcessed:   m.bytesProcessed.Load(),
		ParseErrors:      m.parseErrors.Load(),
		ChecksumFailures: m.checksumFailures.Load(),
		QueueDrops:       m.queueDrops.Load(),
		CaptureDrops:     m.captureDrops.Load(),
		EtherIPv4:        m.etherIPv4.Load(),
		EtherIPv6:        m.etherIPv6.Load(),
		EtherARP:         m.etherARP.Load(),
		EtherOther:       m.etherOther.Load(),
		ProtoTCP:         m.protoTCP.Load(),
		ProtoUDP:         m.protoUDP.Load(),
		ProtoICMP:        m.protoICMP.Load(),
		ProtoOther:       m.protoOther.Load(),
		QueueDepthMax:    m.queueDepthMax.Load(),
		LatencyCount:     m.latencyCount.Load(),
		LatencySumNS:     m.latencySumNS.Load(),
		LatencyMaxNS:     m.latencyMaxNS.Load(),
	}
	for i := range s.Histogram {
		s.Histogram[i] = m.histogram[i].Load()
	}

	if start > 0 {
		s.ElapsedSec = float64(now-start) / 1e9
		end := captureEnd
		if end == 0 {
			end = now
		}
		s.CaptureElapsedSec = float64(end-start) / 1e9
	}

	return s
}

// LatencyAvgNS returns the mean latency in nanoseconds, or 0 if no
// observations have been recorded.
func (s Snapshot) LatencyAvgNS() float64 {
	if s.LatencyCount == 0 {
		return 0
	}
	return float64(s.LatencySumNS) / float64(s.LatencyCount)
}

// bucketRepresentative returns the representative latency, in nanoseconds,
// attributed to histogram bucket i: bucket 0 returns 500ns; bucket i >= 1
// returns the arithmetic midpoint of [2^(i-1), 2^i) microseconds, converted
// to nanoseconds. This preserves the source's geometric-bucket/arithmetic-
// midpoint formula rather than switching to a geometric midpoint, so reports
// stay comparable against historical baselines.
func bucketRepresentative(i int) float64 {
	if i == 0 {
		return 500
	}
	lowUS := float64(uint64(1) << (i - 1))
	highUS := float64(uint64(1) << i)
	midUS := (lowUS + highUS) / 2
	return midUS * 1000
}

// Percentile estimates the p-th percentile (0 <= p <= 1) latency in
// nanoseconds from the histogram. Walks buckets in ascending order
// accumulating counts; on reaching or exceeding the target rank, returns
// that bucket's representative value. Falls back to LatencyMaxNS if the walk
// exhausts without reaching the target, which happens when the target rank
// exceeds the histogram's total (p > 1, or a snapshot whose bucket counts
// were read before LatencyCount caught up).
func (s Snapshot) Percentile(p float64) float64 {
	if s.LatencyCount == 0 {
		return 0
	}

	target := uint64(math.Round(float64(s.LatencyCount) * p))
	var cumulative uint64
	for i, count := range s.Histogram {
		cumulative += count
		if cumulative >= target {
			return bucketRepresentative(i)
		}
	}
	return float64(s.LatencyMaxNS)
}
