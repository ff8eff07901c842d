package analyzer

import (
	"errors"
	"math"
	"testing"

	"github.com/pulseviz/pulseviz/internal/audio"
)

func encode(t *testing.T, samples []int16) []byte {
	t.Helper()
	clip, err := audio.EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return clip
}

func TestAnalyzeAllZeroIsSilence(t *testing.T) {
	clip := encode(t, make([]int16, 1600))
	res, err := Analyze(clip, 0.02)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.AvgAmplitude != 0 {
		t.Errorf("avg amplitude = %v, want 0", res.AvgAmplitude)
	}
	if !res.IsMostlySilence {
		t.Error("all-zero clip not classified as silence")
	}
}

func TestAnalyzeAlternatingHalfScale(t *testing.T) {
	// Samples alternating at half scale must classify as signal with
	// mean amplitude 0.5.
	samples := make([]int16, 1600)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 16384
		} else {
			samples[i] = -16384
		}
	}
	res, err := Analyze(encode(t, samples), 0.02)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(res.AvgAmplitude-0.5) > 1e-9 {
		t.Errorf("avg amplitude = %v, want 0.5", res.AvgAmplitude)
	}
	if res.IsMostlySilence {
		t.Error("half-scale clip classified as silence")
	}
}

func TestAnalyzeDuration(t *testing.T) {
	res, err := Analyze(encode(t, make([]int16, 16000)), 0.02)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Duration.Seconds() != 1 {
		t.Errorf("duration = %v, want 1s", res.Duration)
	}
	if res.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", res.SampleRate)
	}
}

func TestAnalyzeUndecodableClip(t *testing.T) {
	_, err := Analyze([]byte("not a wav"), 0.02)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("err = %T, want *DecodeError", err)
	}
}
