// Package metrics implements the lock-free counters, latency histogram, and
// snapshot primitive shared by the worker pool, the run loop, and the
// reporters.
package metrics

import (
	"math/bits"
	"sync/atomic"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

// HistogramBuckets is the fixed bucket count of the exponential latency
// histogram. Bucket i covers approximately [2^i us, 2^(i+1) us), with bucket
// 0 covering [0, 1us) and bucket 31 an overflow catch-all for latencies at or
// above roughly 1 second.
const HistogramBuckets = 32

// Metrics is the process-wide counter set for one measurement run. All
// fields are modified only through fetch-add or compare-and-swap loops;
// there is no lock, and no cross-field consistency is guaranteed to an
// observer racing a writer.
type Metrics struct {
	startTimeNS      atomic.Int64
	captureEndTimeNS atomic.Int64

	pktsCaptured   atomic.Uint64
	pktsProcessed  atomic.Uint64
	bytesCaptured  atomic.Uint64
	bytesProcessed atomic.Uint64

	parseErrors      atomic.Uint64
	checksumFailures atomic.Uint64
	queueDrops       atomic.Uint64
	captureDrops     atomic.Uint64

	etherIPv4  atomic.Uint64
	etherIPv6  atomic.Uint64
	etherARP   atomic.Uint64
	etherOther atomic.Uint64

	protoTCP   atomic.Uint64
	protoUDP   atomic.Uint64
	protoICMP  atomic.Uint64
	protoOther atomic.Uint64

	queueDepthMax atomic.Uint32

	latencyCount atomic.Uint64
	latencySumNS atomic.Uint64
	latencyMaxNS atomic.Uint64
	histogram    [HistogramBuckets]atomic.Uint64
}

// New returns a freshly zeroed Metrics instance, equivalent to the spec's
// init lifecycle call.
func New() *Metrics {
	return &Metrics{}
}

// Reset zeroes every counter and clears start_time_ns, restoring the
// instance to its just-constructed state. Used between the warmup and
// measure phases so warmup traffic never contaminates a measurement run.
func (m *Metrics) Reset() {
	m.startTimeNS.Store(0)
	m.captureEndTimeNS.Store(0)
	m.pktsCaptured.Store(0)
	m.pktsProcessed.Store(0)
	m.bytesCaptured.Store(0)
	m.bytesProcessed.Store(0)
	m.parseErrors.Store(0)
	m.checksumFailures.Store(0)
	m.queueDrops.Store(0)
	m.captureDrops.Store(0)
	m.etherIPv4.Store(0)
	m.etherIPv6.Store(0)
	m.etherARP.Store(0)
	m.etherOther.Store(0)
	m.protoTCP.Store(0)
	m.protoUDP.Store(0)
	m.protoICMP.Store(0)
	m.protoOther.Store(0)
	m.queueDepthMax.Store(0)
	m.latencyCount.Store(0)
	m.latencySumNS.Store(0)
	m.latencyMaxNS.Store(0)
	for i := range m.histogram {
		m.histogram[i].Store(0)
	}
}

// Start stamps start_time_ns with the current monotonic clock, marking the
// metrics instance active.
func (m *Metrics) Start() {
	m.startTimeNS.Store(monotonicNS())
}

// StopCapture stamps capture_end_time_ns, marking the end of the capture
// phase (workers may still be draining queued records afterward).
func (m *Metrics) StopCapture() {
	m.captureEndTimeNS.Store(monotonicNS())
}

// IsActive reports whether Start has been called, which is how the worker
// pool distinguishes warmup observations (discarded) from measurement
// observations (recorded).
func (m *Metrics) IsActive() bool {
	return m.startTimeNS.Load() > 0
}

// IncCaptured records one captured frame of the given length. Called from the
// run loop only during the measurement window.
func (m *Metrics) IncCaptured(length int) {
	m.pktsCaptured.Add(1)
	m.bytesCaptured.Add(uint64(length))
}

// IncProcessed records one processed frame of the given length. Called from
// a worker only when IsActive is true at the moment of check.
func (m *Metrics) IncProcessed(length int) {
	m.pktsProcessed.Add(1)
	m.bytesProcessed.Add(uint64(length))
}

// IncParseErrors increments parse_errors. Called unconditionally by the
// decode step regardless of the measurement window, since a parse failure is
// a property of the frame, not an observation to admit or discard.
func (m *Metrics) IncParseErrors() {
	m.parseErrors.Add(1)
}

// IncChecksumFailures increments checksum_failures. Same unconditional
// discipline as IncParseErrors.
func (m *Metrics) IncChecksumFailures() {
	m.checksumFailures.Add(1)
}

// IncQueueDrops increments queue_drops. Called by the work queue itself on a
// failed enqueue; see queue.MetricsRecorder.
func (m *Metrics) IncQueueDrops() {
	m.queueDrops.Add(1)
}

// IncCaptureDrops increments capture_drops, fed by a capture source that
// reports its own drop counter (e.g. pcap statistics).
func (m *Metrics) IncCaptureDrops(n uint64) {
	m.captureDrops.Add(n)
}

// UpdateQueueDepthMax updates the queue_depth_max watermark via a
// compare-and-swap loop, retrying on contention.
func (m *Metrics) UpdateQueueDepthMax(depth uint32) {
	for {
		current := m.queueDepthMax.Load()
		if depth <= current {
			return
		}
		if m.queueDepthMax.CompareAndSwap(current, depth) {
			return
		}
	}
}

// EtherType values recognized by IncEtherType.
const (
	EtherIPv4 = iota
	EtherIPv6
	EtherARP
	EtherOther
)

// IncEtherType increments the L3 tally matching the given class.
func (m *Metrics) IncEtherType(class int) {
	switch class {
	case EtherIPv4:
		m.etherIPv4.Add(1)
	case EtherIPv6:
		m.etherIPv6.Add(1)
	case EtherARP:
		m.etherARP.Add(1)
	default:
		m.etherOther.Add(1)
	}
}

// IP protocol classes recognized by IncProtocol.
const (
	ProtoTCP = iota
	ProtoUDP
	ProtoICMP
	ProtoOther
)

// IncProtocol increments the L4 tally matching the given class.
func (m *Metrics) IncProtocol(class int) {
	switch class {
	case ProtoTCP:
		m.protoTCP.Add(1)
	case ProtoUDP:
		m.protoUDP.Add(1)
	case ProtoICMP:
		m.protoICMP.Add(1)
	default:
		m.protoOther.Add(1)
	}
}

// ObserveLatency folds one latency observation, in nanoseconds, into the
// aggregate sum/count/max and the histogram.
func (m *Metrics) ObserveLatency(latencyNS int64) {
	if latencyNS < 0 {
		latencyNS = 0
	}
	m.latencyCount.Add(1)
	m.latencySumNS.Add(uint64(latencyNS))
	m.updateLatencyMax(uint64(latencyNS))
	m.histogram[bucketIndex(latencyNS)].Add(1)
}

func (m *Metrics) updateLatencyMax(candidate uint64) {
	for {
		current := m.latencyMaxNS.Load()
		if candidate <= current {
			return
		}
		if m.latencyMaxNS.CompareAndSwap(current, candidate) {
			return
		}
	}
}

// bucketIndex maps a latency in nanoseconds to its histogram bucket: let
// u = latency_ns / 1000 (microseconds); bucket 0 if u == 0, otherwise
// min(31, floor(log2(u))). floor(log2(u)) for a positive integer is exactly
// the index of its highest set bit, computed here with math/bits rather than
// math.Log2 so that values sitting exactly on a power-of-two boundary never
// drift into the bucket below by floating-point rounding.
func bucketIndex(latencyNS int64) int {
	u := latencyNS / 1000
	if u <= 0 {
		return 0
	}
	idx := bits.Len64(uint64(u)) - 1
	if idx > HistogramBuckets-1 {
		idx = HistogramBuckets - 1
	}
	return idx
}

func monotonicNS() int64 {
	return core.MonotonicNS()
}
