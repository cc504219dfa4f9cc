// Package core defines the packet record and protocol header views shared
// across the capture pipeline.
package core

import "time"

// MaxFrameLength is the largest link-layer frame the pipeline will retain.
// Frames longer than this are truncated by the capture source, never here.
const MaxFrameLength = 65535

// processStart anchors the monotonic clock shared by capture timestamps and
// the metrics core. time.Now() carries a monotonic reading; converting
// straight to UnixNano would strip it, so every "monotonic nanosecond" value
// in this system is actually time.Since(processStart), which stays monotonic
// because the subtraction happens on two monotonic-bearing time.Time values.
var processStart = time.Now()

// MonotonicNS returns nanoseconds elapsed since process start on the
// monotonic clock. Used to stamp PacketRecord.CaptureMonoNS and, in the
// metrics core, start_time_ns/capture_end_time_ns, so that subtracting any
// two readings yields a true elapsed duration.
func MonotonicNS() int64 {
	return int64(time.Since(processStart))
}

// PacketRecord is an owned copy of one captured frame plus the lazily
// attached header views produced by decoding it.
//
// A record is created on the capture thread, handed to exactly one worker
// through the work queue, and never touched again by the capture thread.
// There is no shared mutable access to a single record.
type PacketRecord struct {
	Raw           []byte
	PacketLength  int
	CaptureTime   time.Time // wall clock, for display only
	CaptureMonoNS int64     // monotonic clock, basis for latency

	Ethernet *EthernetHeader
	IPv4     *IPv4Header
	TCP      *TCPHeader
	UDP      *UDPHeader
	Payload  []byte
}

// NewPacketRecord copies data into an owned buffer and stamps both
// capture timestamps.
func NewPacketRecord(data []byte, captureTime time.Time, captureMonoNS int64) *PacketRecord {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &PacketRecord{
		Raw:           buf,
		PacketLength:  len(buf),
		CaptureTime:   captureTime,
		CaptureMonoNS: captureMonoNS,
	}
}

// EthernetHeader is the L2 Ethernet frame header.
type EthernetHeader struct {
	DstMAC    [6]byte
	SrcMAC    [6]byte
	EtherType uint16
}

// EtherType values this pipeline distinguishes.
const (
	EtherTypeIPv4 = 0x0800
	EtherTypeIPv6 = 0x86DD
	EtherTypeARP  = 0x0806
)

// IPv4Header is the L3 IPv4 header.
type IPv4Header struct {
	VersionIHL    uint8
	IHL           int // header length in bytes
	TotalLength   uint16
	TTL           uint8
	Protocol      uint8
	Checksum      uint16
	SrcIP         [4]byte
	DstIP         [4]byte
	ChecksumValid bool
}

// IP protocol numbers this pipeline distinguishes.
const (
	ProtocolICMP   = 1
	ProtocolTCP    = 6
	ProtocolUDP    = 17
	ProtocolICMPv6 = 58
)

// TCPHeader is the L4 TCP header (options are skipped, not retained).
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	SeqNum     uint32
	AckNum     uint32
	DataOffset uint8 // header length in 32-bit words
	Flags      uint8
}

// UDPHeader is the L4 UDP header.
type UDPHeader struct {
	SrcPort uint16
	DstPort uint16
	Length  uint16
}
