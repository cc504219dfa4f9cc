package decoder

import (
	"github.com/ChelseaVadlapati/packet-analyzer/internal/core"
)

// Outcome reports what happened while decoding one record, for the caller
// to fold into metrics. Decoding itself never touches metrics directly so
// that it stays a pure function of the buffer.
type Outcome struct {
	ParseFailed    bool
	ChecksumFailed bool
}

// Parse decodes as many layers of rec.Raw as the frame length allows,
// attaching header views to rec and leaving the unconsumed suffix as
// rec.Payload. A short frame at any layer stops further parsing of that
// frame but is not a fatal error to the caller.
func Parse(rec *core.PacketRecord) Outcome {
	eth, rest, err := decodeEthernet(rec.Raw)
	if err != nil {
		return Outcome{ParseFailed: true}
	}
	rec.Ethernet = &eth
	rec.Payload = rest

	if eth.EtherType != core.EtherTypeIPv4 {
		return Outcome{}
	}

	ip, rest, err := decodeIPv4(rest)
	if err != nil {
		return Outcome{ParseFailed: true}
	}
	rec.IPv4 = &ip
	rec.Payload = rest
	outcome := Outcome{ChecksumFailed: !ip.ChecksumValid}

	switch ip.Protocol {
	case core.ProtocolTCP:
		tcp, payload, err := decodeTCP(rest)
		if err == nil {
			rec.TCP = &tcp
			rec.Payload = payload
		}
	case core.ProtocolUDP:
		udp, payload, err := decodeUDP(rest)
		if err == nil {
			rec.UDP = &udp
			rec.Payload = payload
		}
	}

	return outcome
}

// IPv6NextHeaderOffset is the byte offset of the IPv6 Next Header field
// within a frame (14-byte Ethernet header + 6 bytes into the IPv6 header).
// The worker pool reads this directly rather than parsing a full IPv6
// header view, matching the data model's IPv6 handling in §4.3.
const IPv6NextHeaderOffset = 14 + 6

// IPv6MinFrameLen is the minimum frame length for IPv6NextHeaderOffset to
// be valid (14-byte Ethernet header + 40-byte IPv6 header).
const IPv6MinFrameLen = 14 + 40
