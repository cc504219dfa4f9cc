package decoder

import (
	"encoding/binary"

	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

const ipv4HeaderMinLen = 20

// decodeIPv4 decodes the IPv4 header. ihl is read from the low nibble of the
// first byte and used to derive the L4 offset; a header claiming a shorter
// length than the 20-byte minimum, or a version field other than 4, is a
// parse error rather than a silent fallthrough.
func decodeIPv4(data []byte) (core.IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, core.ErrPacketTooShort
	}

	versionIHL := data[0]
	version := versionIHL >> 4
	ihl := int(versionIHL&0x0F) * 4
	if version != 4 || ihl < ipv4HeaderMinLen || len(data) < ihl {
		return core.IPv4Header{}, nil, core.ErrPacketTooShort
	}

	ip := core.IPv4Header{
		VersionIHL:  versionIHL,
		IHL:         ihl,
		TotalLength: binary.BigEndian.Uint16(data[2:4]),
		TTL:         data[8],
		Protocol:    data[9],
		Checksum:    binary.BigEndian.Uint16(data[10:12]),
	}
	copy(ip.SrcIP[:], data[12:16])
	copy(ip.DstIP[:], data[16:20])
	ip.ChecksumValid = verifyIPv4Checksum(data[:ihl])

	return ip, data[ihl:], nil
}

// verifyIPv4Checksum folds all 16-bit words of the header, skipping the
// checksum word itself, reduces carries, and compares the one's complement
// against the stored checksum.
func verifyIPv4Checksum(header []byte) bool {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		if i == 10 { // checksum field at offset 10-11
			continue
		}
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	computed := uint16(^sum)
	stored := binary.BigEndian.Uint16(header[10:12])
	return computed == stored
}
