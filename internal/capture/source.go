// Package capture defines the narrow external collaborator spec.md treats
// as out of scope for the core: a construction operation bound to an
// interface name, a filter specifier, and a non-blocking read that returns
// one link-layer frame per call.
package capture

import "time"

// Filter values recognized by Source.SetFilter.
const (
	FilterNone = "none"
	FilterICMP = "icmp"
)

// Source is a live packet-capture handle. Read never blocks for long: a
// length of 0 means "no packet currently available," a non-nil error
// means "transient error, caller should retry," matching spec §6.
type Source interface {
	// SetFilter installs a filter drawn from {none, icmp}. icmp forwards
	// only ICMPv4/ICMPv6 frames at link layer.
	SetFilter(filter string) error

	// Read returns one captured frame, its arrival wall-clock time, and the
	// monotonic capture timestamp to use as the latency basis. length(data)
	// == 0 means no packet was available; a non-nil error with nil data
	// means a transient read error the caller should log and retry.
	Read() (data []byte, capturedAt time.Time, monotonicNS int64, err error)

	// Drops reports the cumulative number of frames the underlying source
	// itself discarded (e.g. kernel ring-buffer overflow), fed into
	// capture_drops.
	Drops() (uint64, error)

	// Close releases the underlying handle.
	Close() error
}
