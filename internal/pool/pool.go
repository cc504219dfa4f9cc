// Package pool implements the fixed-size worker pool that drains the work
// queue, parses each record, and folds admitted observations into the
// metrics core.
package pool

import (
	"sync"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/core/decoder"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/metrics"
)

// Queue is the slice of queue.WorkQueue the pool needs. Defined here rather
// than imported concretely so the pool package and the queue package do not
// need to know about each other beyond this shape.
type Queue interface {
	DequeueBlocking() (*core.PacketRecord, error)
	Shutdown()
	Drain() []*core.PacketRecord
}

// ipv6NextHeaderOffset and ipv6MinFrameLen mirror decoder.IPv6NextHeaderOffset
// and decoder.IPv6MinFrameLen; the worker reads the IPv6 next-header byte
// directly rather than parsing a full IPv6 header view, matching spec §4.3.
const (
	ipv6NextHeaderOffset = decoder.IPv6NextHeaderOffset
	ipv6MinFrameLen      = decoder.IPv6MinFrameLen
)

// Pool is a fixed count of worker goroutines, each looping dequeue -> parse
// -> observe -> release.
type Pool struct {
	queue   Queue
	metrics *metrics.Metrics
	n       int

	wg sync.WaitGroup
}

// New constructs a pool of n workers reading from q and recording
// observations into m. Workers are not started until Start is called.
func New(q Queue, m *metrics.Metrics, n int) *Pool {
	return &Pool{queue: q, metrics: m, n: n}
}

// Start launches all n worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Shutdown flips the queue into shutdown mode, which wakes every blocked
// worker, joins all of them, then drains and discards any records that were
// still queued. Returns the number of records discarded this way.
func (p *Pool) Shutdown() int {
	p.queue.Shutdown()
	p.wg.Wait()
	leftover := p.queue.Drain()
	return len(leftover)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		rec, err := p.queue.DequeueBlocking()
		if err != nil {
			return
		}
		p.process(rec)
	}
}

// process parses one record and, if the metrics core is currently active
// (i.e. past warmup), folds the observation into it. parse_errors and
// checksum_failures are recorded unconditionally: they describe the frame
// itself, not the measurement window.
func (p *Pool) process(rec *core.PacketRecord) {
	outcome := decoder.Parse(rec)
	if outcome.ParseFailed {
		p.metrics.IncParseErrors()
	}
	if outcome.ChecksumFailed {
		p.metrics.IncChecksumFailures()
	}

	if !p.metrics.IsActive() {
		return
	}

	p.observe(rec)
}

func (p *Pool) observe(rec *core.PacketRecord) {
	if rec.Ethernet != nil {
		p.metrics.IncEtherType(etherClass(rec.Ethernet.EtherType))
	}

	switch {
	case rec.IPv4 != nil:
		p.metrics.IncProtocol(protoClassIPv4(rec.IPv4.Protocol))
	case rec.Ethernet != nil && rec.Ethernet.EtherType == core.EtherTypeIPv6 && len(rec.Raw) >= ipv6MinFrameLen:
		nextHeader := rec.Raw[ipv6NextHeaderOffset]
		p.metrics.IncProtocol(protoClassIPv6NextHeader(nextHeader))
	}

	latencyNS := core.MonotonicNS() - rec.CaptureMonoNS
	p.metrics.ObserveLatency(latencyNS)

	p.metrics.IncProcessed(rec.PacketLength)
}

func etherClass(etherType uint16) int {
	switch etherType {
	case core.EtherTypeIPv4:
		return metrics.EtherIPv4
	case core.EtherTypeIPv6:
		return metrics.EtherIPv6
	case core.EtherTypeARP:
		return metrics.EtherARP
	default:
		return metrics.EtherOther
	}
}

func protoClassIPv4(protocol uint8) int {
	switch protocol {
	case core.ProtocolTCP:
		return metrics.ProtoTCP
	case core.ProtocolUDP:
		return metrics.ProtoUDP
	case core.ProtocolICMP:
		return metrics.ProtoICMP
	default:
		return metrics.ProtoOther
	}
}

// protoClassIPv6NextHeader maps an IPv6 Next Header byte to the same L4
// tally table IPv4 uses; ICMPv6 (58) aggregates into the ICMP counter.
func protoClassIPv6NextHeader(nextHeader uint8) int {
	switch nextHeader {
	case core.ProtocolTCP:
		return metrics.ProtoTCP
	case core.ProtocolUDP:
		return metrics.ProtoUDP
	case core.ProtocolICMPv6:
		return metrics.ProtoICMP
	default:
		return metrics.ProtoOther
	}
}
