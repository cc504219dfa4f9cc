// Package pcap implements capture.Source on top of libpcap via gopacket/pcap.
// This is the default capture source: it opens the named interface live,
// compiles the {none, icmp} filter from spec.md §6, and wraps pcap's
// blocking ReadPacketData with a short read timeout so a timeout maps to
// the "0 bytes available" contract the run loop expects.
package pcap

import (
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/capture"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

// readTimeout bounds how long ReadPacketData blocks before returning
// pcap.NextErrorTimeoutExpired, which Read() below maps to "no packet".
const readTimeout = 10 * time.Millisecond

// Source wraps a live pcap handle.
type Source struct {
	handle *pcap.Handle
}

// Open starts a live capture on the named interface with the given
// snapshot length (max bytes captured per frame) and buffer size (bytes of
// kernel-side ring buffer), in immediate mode so packets are delivered
// without the libpcap read buffer's own batching delay.
func Open(iface string, snapLen int, bufferSize int) (*Source, error) {
	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, fmt.Errorf("packet-analyzer: pcap open %s: %w", iface, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snapLen); err != nil {
		return nil, fmt.Errorf("packet-analyzer: pcap set snaplen: %w", err)
	}
	if err := inactive.SetTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("packet-analyzer: pcap set timeout: %w", err)
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, fmt.Errorf("packet-analyzer: pcap set immediate mode: %w", err)
	}
	if bufferSize > 0 {
		if err := inactive.SetBufferSize(bufferSize); err != nil {
			return nil, fmt.Errorf("packet-analyzer: pcap set buffer size: %w", err)
		}
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, fmt.Errorf("packet-analyzer: pcap set promisc: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("packet-analyzer: pcap activate %s: %w", iface, err)
	}

	return &Source{handle: handle}, nil
}

// SetFilter compiles and installs a BPF program for the given filter
// specifier. FilterNone (or "") installs nothing and leaves any filter
// already on the handle in place.
func (s *Source) SetFilter(filter string) error {
	switch filter {
	case capture.FilterNone, "":
		return nil
	case capture.FilterICMP:
		return s.handle.SetBPFFilter("icmp or icmp6")
	default:
		return fmt.Errorf("packet-analyzer: unknown filter %q", filter)
	}
}

// Read returns the next captured frame. A pcap read timeout (no packet
// arrived within readTimeout) is reported as a zero-length read, matching
// the "0 bytes available" contract; any other pcap error is returned as a
// transient error for the caller to log and retry.
func (s *Source) Read() ([]byte, time.Time, int64, error) {
	data, ci, err := s.handle.ReadPacketData()
	monotonicNS := core.MonotonicNS()
	if err == pcap.NextErrorTimeoutExpired {
		return nil, time.Time{}, monotonicNS, nil
	}
	if err != nil {
		return nil, time.Time{}, monotonicNS, fmt.Errorf("packet-analyzer: pcap read: %w", err)
	}
	return data, ci.Timestamp, monotonicNS, nil
}

// Drops reports libpcap's own dropped-packet counter.
func (s *Source) Drops() (uint64, error) {
	stats, err := s.handle.Stats()
	if err != nil {
		return 0, fmt.Errorf("packet-analyzer: pcap stats: %w", err)
	}
	return uint64(stats.PacketsDropped), nil
}

// Close releases the pcap handle.
func (s *Source) Close() error {
	s.handle.Close()
	return nil
}
