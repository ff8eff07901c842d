package analyzer

import (
	"fmt"
	"time"

	"github.com/pulseviz/pulseviz/internal/audio"
)

// DefaultSilenceThreshold classifies a clip as mostly silence when its
// mean absolute amplitude falls below it.
const DefaultSilenceThreshold = 0.02

// Result is the offline classification of a recorded clip.
type Result struct {
	AvgAmplitude    float64       `json:"avg_amplitude"`
	IsMostlySilence bool          `json:"is_mostly_silence"`
	Duration        time.Duration `json:"duration"`
	SampleRate      int           `json:"sample_rate"`
	Samples         int           `json:"samples"`
}

// DecodeError reports a clip that could not be decoded. It is carried
// inside the end notification rather than failing the session.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode clip: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Analyze decodes a recorded clip and classifies it as silence or
// signal by mean absolute amplitude over the first (only) channel.
// Threshold values outside (0,1) fall back to the default.
func Analyze(clip []byte, threshold float64) (Result, error) {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultSilenceThreshold
	}

	samples, rate, err := audio.DecodeWAV(clip)
	if err != nil {
		return Result{}, &DecodeError{Err: err}
	}

	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768
		if v < 0 {
			v = -v
		}
		sum += v
	}
	avg := sum / float64(len(samples))

	return Result{
		AvgAmplitude:    avg,
		IsMostlySilence: avg < threshold,
		Duration:        time.Duration(len(samples)) * time.Second / time.Duration(rate),
		SampleRate:      rate,
		Samples:         len(samples),
	}, nil
}
