package audio

import (
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []int16{0, 16384, -16384, 32767, -32768}
	data, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != 44+len(samples)*2 {
		t.Errorf("clip size = %d, want %d", len(data), 44+len(samples)*2)
	}

	decoded, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, decoded[i], samples[i])
		}
	}
}

func TestEncodeWAVRejectsEmpty(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Error("expected error for empty samples")
	}
	if _, err := EncodeWAV([]int16{1}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"too short": {1, 2, 3},
		"not riff":  make([]byte, 64),
	}
	for name, data := range cases {
		if _, _, err := DecodeWAV(data); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}

func TestFloatToPCM16(t *testing.T) {
	got := FloatToPCM16([]float32{0, 1, -1, 0.5, 2})
	want := []int16{0, 32767, -32767, 16383, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}
