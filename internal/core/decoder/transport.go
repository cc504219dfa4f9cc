package decoder

import (
	"encoding/binary"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

const (
	tcpHeaderMinLen = 20
	udpHeaderLen    = 8
)

// decodeTCP decodes the TCP header and returns the bytes that follow it,
// options included in the skipped header length, so the caller need not
// advance past them itself.
func decodeTCP(data []byte) (core.TCPHeader, []byte, error) {
	if len(data) < tcpHeaderMinLen {
		return core.TCPHeader{}, nil, core.ErrPacketTooShort
	}

	dataOffset := data[12] >> 4
	headerLen := int(dataOffset) * 4
	if headerLen < tcpHeaderMinLen || len(data) < headerLen {
		return core.TCPHeader{}, nil, core.ErrPacketTooShort
	}

	tcp := core.TCPHeader{
		SrcPort:    binary.BigEndian.Uint16(data[0:2]),
		DstPort:    binary.BigEndian.Uint16(data[2:4]),
		SeqNum:     binary.BigEndian.Uint32(data[4:8]),
		AckNum:     binary.BigEndian.Uint32(data[8:12]),
		DataOffset: dataOffset,
		Flags:      data[13] & 0x3F,
	}

	return tcp, data[headerLen:], nil
}

// decodeUDP decodes the 8-byte UDP header.
func decodeUDP(data []byte) (core.UDPHeader, []byte, error) {
	if len(data) < udpHeaderLen {
		return core.UDPHeader{}, nil, core.ErrPacketTooShort
	}

	udp := core.UDPHeader{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
		Length:  binary.BigEndian.Uint16(data[4:6]),
	}

	return udp, data[udpHeaderLen:], nil
}
