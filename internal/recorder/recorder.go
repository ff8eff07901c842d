package recorder

import (
	"fmt"
	"sync"

	"github.com/pulseviz/pulseviz/internal/audio"
)

// Result is the terminal output of one recording, delivered once when
// Stop resolves. Clip is nil when nothing was recorded.
type Result struct {
	Clip       []byte // assembled WAV container
	Samples    int
	SampleRate int
}

// Recorder buffers capture frames into fragments and assembles them
// into a single clip on stop. Pause and Resume bracket muted intervals
// so the clip contains no silence from them.
type Recorder interface {
	Start() error
	Pause() error
	Resume() error
	// Stop assembles all buffered fragments into one clip. It resolves
	// exactly once; further calls return ErrStopped.
	Stop() (Result, error)
	// Write appends one capture frame. Frames written while paused or
	// before Start are dropped.
	Write(frame []float32)
	Active() bool
}

// ErrStopped is returned by operations on a recorder whose Stop has
// already resolved.
var ErrStopped = fmt.Errorf("recorder already stopped")

type wavRecorder struct {
	mu         sync.Mutex
	sampleRate int
	fragments  [][]int16
	recording  bool
	paused     bool
	stopped    bool
}

// New creates a WAV-backed recorder.
func New(sampleRate int) (Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	return &wavRecorder{sampleRate: sampleRate}, nil
}

func (r *wavRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	if r.recording {
		return fmt.Errorf("recorder already started")
	}
	r.recording = true
	return nil
}

func (r *wavRecorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	if r.paused {
		return fmt.Errorf("recorder already paused")
	}
	r.paused = true
	return nil
}

func (r *wavRecorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	if !r.paused {
		return fmt.Errorf("recorder not paused")
	}
	r.paused = false
	return nil
}

func (r *wavRecorder) Write(frame []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording || r.paused || r.stopped || len(frame) == 0 {
		return
	}
	r.fragments = append(r.fragments, audio.FloatToPCM16(frame))
}

func (r *wavRecorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording && !r.stopped
}

func (r *wavRecorder) Stop() (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return Result{}, ErrStopped
	}
	r.stopped = true
	r.recording = false

	total := 0
	for _, f := range r.fragments {
		total += len(f)
	}
	if total == 0 {
		return Result{SampleRate: r.sampleRate}, nil
	}

	samples := make([]int16, 0, total)
	for _, f := range r.fragments {
		samples = append(samples, f...)
	}
	r.fragments = nil

	clip, err := audio.EncodeWAV(samples, r.sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("failed to assemble clip: %w", err)
	}
	return Result{Clip: clip, Samples: total, SampleRate: r.sampleRate}, nil
}
