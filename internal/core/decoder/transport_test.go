package decoder

import "testing"

func TestDecodeTCPBasic(t *testing.T) {
	data := []byte{
		0x1F, 0x90, // SrcPort 8080
		0x00, 0x50, // DstPort 80
		0x00, 0x00, 0x00, 0x01, // SeqNum
		0x00, 0x00, 0x00, 0x02, // AckNum
		0x50, 0x18, // DataOffset 5, Flags ACK|PSH
		0x20, 0x00, // Window
		0x00, 0x00, // Checksum
		0x00, 0x00, // Urgent pointer
		0xDE, 0xAD, 0xBE, 0xEF, // payload
	}

	tcp, payload, err := decodeTCP(data)
	if err != nil {
		t.Fatalf("decodeTCP failed: %v", err)
	}
	if tcp.SrcPort != 8080 {
		t.Errorf("SrcPort = %d, want 8080", tcp.SrcPort)
	}
	if tcp.DstPort != 80 {
		t.Errorf("DstPort = %d, want 80", tcp.DstPort)
	}
	if tcp.SeqNum != 1 {
		t.Errorf("SeqNum = %d, want 1", tcp.SeqNum)
	}
	if tcp.AckNum != 2 {
		t.Errorf("AckNum = %d, want 2", tcp.AckNum)
	}
	if tcp.DataOffset != 5 {
		t.Errorf("DataOffset = %d, want 5", tcp.DataOffset)
	}
	if tcp.Flags != 0x18 {
		t.Errorf("Flags = 0x%02x, want 0x18", tcp.Flags)
	}
	if len(payload) != 4 {
		t.Errorf("len(payload) = %d, want 4", len(payload))
	}
}

func TestDecodeTCPWithOptions(t *testing.T) {
	data := []byte{
		0x1F, 0x90, 0x00, 0x50,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
		0x60, 0x02, // DataOffset 6 (24 bytes), Flags SYN
		0x20, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x02, 0x04, 0x05, 0xB4, // 4 bytes of options
		0xFF, // payload
	}

	tcp, payload, err := decodeTCP(data)
	if err != nil {
		t.Fatalf("decodeTCP failed: %v", err)
	}
	if tcp.DataOffset != 6 {
		t.Errorf("DataOffset = %d, want 6", tcp.DataOffset)
	}
	if len(payload) != 1 {
		t.Errorf("len(payload) = %d, want 1", len(payload))
	}
}

func TestDecodeTCPTooShort(t *testing.T) {
	data := make([]byte, 19)
	_, _, err := decodeTCP(data)
	if err == nil {
		t.Error("expected error for 19-byte TCP header, got nil")
	}
}

func TestDecodeTCPHeaderLenExceedsData(t *testing.T) {
	data := make([]byte, 20)
	data[12] = 0x60 // claims a 24-byte header but only 20 bytes are present
	_, _, err := decodeTCP(data)
	if err == nil {
		t.Error("expected error when data offset exceeds available data, got nil")
	}
}

func TestDecodeUDPBasic(t *testing.T) {
	data := []byte{
		0x04, 0xD2, // SrcPort 1234
		0x00, 0x35, // DstPort 53
		0x00, 0x0C, // Length 12
		0x00, 0x00, // Checksum
		0xAA, 0xBB, 0xCC, 0xDD, // payload
	}

	udp, payload, err := decodeUDP(data)
	if err != nil {
		t.Fatalf("decodeUDP failed: %v", err)
	}
	if udp.SrcPort != 1234 {
		t.Errorf("SrcPort = %d, want 1234", udp.SrcPort)
	}
	if udp.DstPort != 53 {
		t.Errorf("DstPort = %d, want 53", udp.DstPort)
	}
	if udp.Length != 12 {
		t.Errorf("Length = %d, want 12", udp.Length)
	}
	if len(payload) != 4 {
		t.Errorf("len(payload) = %d, want 4", len(payload))
	}
}

func TestDecodeUDPTooShort(t *testing.T) {
	data := make([]byte, 7)
	_, _, err := decodeUDP(data)
	if err == nil {
		t.Error("expected error for 7-byte UDP header, got nil")
	}
}
