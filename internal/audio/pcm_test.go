package audio

import "testing"

func TestFloatToPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{in: 0, want: 0},
		{in: 1, want: 0x7fff},
		{in: -1, want: -0x8000},
		{in: 0.5, want: 16383},
		{in: -0.5, want: -16384},
		{in: 2, want: 0x7fff},
		{in: -3, want: -0x8000},
	}

	for _, tt := range tests {
		if got := FloatToPCM16(tt.in); got != tt.want {
			t.Errorf("FloatToPCM16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPCM16Bytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	b := EncodePCM16(samples)

	if len(b) != len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*2, len(b))
	}

	if b[2] != 0x01 || b[3] != 0x00 {
		t.Errorf("Expected little-endian encoding, got % x", b[2:4])
	}

	got := DecodePCM16(append(b, 0xff))
	if len(got) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestPCM16ToFloat(t *testing.T) {
	if PCM16ToFloat(-0x8000) != -1 {
		t.Error("Expected -1 for minimum sample")
	}
	if PCM16ToFloat(0x7fff) != 1 {
		t.Error("Expected 1 for maximum sample")
	}
}
