package dsp

// DefaultSmoothing is the EMA weight applied to each new frame's level.
const DefaultSmoothing = 0.3

// Sampler turns raw time-domain audio windows into a smoothed,
// normalized amplitude in [0,1]. Windows are unsigned 8-bit samples
// centered at 128, the representation the analyser produces; Quantize
// converts float32 capture frames into that form.
type Sampler struct {
	alpha    float64
	smoothed float64
}

// NewSampler creates a sampler with the given smoothing factor. Values
// outside (0,1] fall back to DefaultSmoothing.
func NewSampler(alpha float64) *Sampler {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothing
	}
	return &Sampler{alpha: alpha}
}

// Process folds one window into the smoothed amplitude and returns the
// updated value. An empty window means no analyser data this frame; the
// smoothed value is left untouched so the caller can skip the frame.
func (s *Sampler) Process(window []uint8) float64 {
	if len(window) == 0 {
		return s.smoothed
	}

	var sum float64
	for _, v := range window {
		d := float64(v) - 128
		if d < 0 {
			d = -d
		}
		sum += d
	}
	normalized := (sum / float64(len(window))) / 128

	s.smoothed = s.smoothed*(1-s.alpha) + normalized*s.alpha
	return s.smoothed
}

// Smoothed returns the current smoothed amplitude without updating it.
func (s *Sampler) Smoothed() float64 {
	return s.smoothed
}

// Reset clears the smoothed amplitude for a fresh session.
func (s *Sampler) Reset() {
	s.smoothed = 0
}

// Quantize maps float32 samples in [-1,1] to unsigned 8-bit samples
// centered at 128, reusing dst when it is large enough.
func Quantize(frame []float32, dst []uint8) []uint8 {
	if cap(dst) < len(frame) {
		dst = make([]uint8, len(frame))
	}
	dst = dst[:len(frame)]
	for i, v := range frame {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		dst[i] = uint8(128 + v*127)
	}
	return dst
}
