package capture

import (
	"fmt"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/capture/afpacket"
	"github.com/ChelseaVadlapati/packet-analyzer/internal/capture/pcap"
)

const (
	BackendPCAP     = "pcap"
	BackendAFPacket = "afpacket"

	defaultSnapLen = 65536
)

// Open selects a concrete Source by backend name ("pcap" or "afpacket").
// An unknown backend, or an afpacket open failure, falls back to pcap —
// afpacket is Linux-only and the harness should still run somewhere pcap
// is the only option.
func Open(backend, iface string, bufBytes, bufMB int) (Source, error) {
	if backend == BackendAFPacket {
		src, err := afpacket.Open(iface, bufMB)
		if err == nil {
			return src, nil
		}
	}
	return pcap.Open(iface, defaultSnapLen, bufBytes)
}
