// Package decoder implements the L2-L4 header parsing described in the
// packet-record data model: a pure function of the owned frame buffer that
// never blocks and never allocates beyond the header views it returns.
package decoder

import (
	"encoding/binary"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

const ethernetHeaderLen = 14

// decodeEthernet decodes the 14-byte Ethernet header.
// Returns the header and the remaining payload.
func decodeEthernet(data []byte) (core.EthernetHeader, []byte, error) {
	if len(data) < ethernetHeaderLen {
		return core.EthernetHeader{}, nil, core.ErrPacketTooShort
	}

	var eth core.EthernetHeader
	copy(eth.DstMAC[:], data[0:6])
	copy(eth.SrcMAC[:], data[6:12])
	eth.EtherType = binary.BigEndian.Uint16(data[12:14])

	return eth, data[ethernetHeaderLen:], nil
}
