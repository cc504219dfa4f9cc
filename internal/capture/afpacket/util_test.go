package afpacket

import "testing"

func TestRecomputeSizeAlignment(t *testing.T) {
	frameSize, blockSize, numBlocks, err := recomputeSize(8, 65536, 4096)
	if err != nil {
		t.Fatalf("recomputeSize failed: %v", err)
	}
	if frameSize%16 != 0 {
		t.Errorf("frameSize %d not a multiple of 16", frameSize)
	}
	if blockSize%4096 != 0 {
		t.Errorf("blockSize %d not a multiple of page size 4096", blockSize)
	}
	if blockSize%frameSize != 0 {
		t.Errorf("blockSize %d not a multiple of frameSize %d", blockSize, frameSize)
	}
	if numBlocks < 1 {
		t.Errorf("numBlocks = %d, want >= 1", numBlocks)
	}
}

func TestRecomputeSizeRejectsInvalidInput(t *testing.T) {
	if _, _, _, err := recomputeSize(0, 65536, 4096); err == nil {
		t.Error("expected error for zero buffer size")
	}
	if _, _, _, err := recomputeSize(8, 0, 4096); err == nil {
		t.Error("expected error for zero snap length")
	}
	if _, _, _, err := recomputeSize(8, 65536, 0); err == nil {
		t.Error("expected error for zero page size")
	}
}

func TestLCMAndGCD(t *testing.T) {
	if got := gcd(12, 18); got != 6 {
		t.Errorf("gcd(12,18) = %d, want 6", got)
	}
	if got := lcm(4, 6); got != 12 {
		t.Errorf("lcm(4,6) = %d, want 12", got)
	}
	if got := lcm(0, 5); got != 0 {
		t.Errorf("lcm(0,5) = %d, want 0", got)
	}
}
