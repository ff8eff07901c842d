package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulseviz/pulseviz/internal/analyzer"
	"github.com/pulseviz/pulseviz/internal/audio"
	"github.com/pulseviz/pulseviz/internal/binding"
	"github.com/pulseviz/pulseviz/internal/config"
	"github.com/pulseviz/pulseviz/internal/dsp"
	"github.com/pulseviz/pulseviz/internal/metrics"
	"github.com/pulseviz/pulseviz/internal/motion"
	"github.com/pulseviz/pulseviz/internal/recorder"
)

type State int

const (
	Idle State = iota
	Capturing
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// ControlSurface lets the session enable and disable the surface's
// control affordances as it moves through its lifecycle.
type ControlSurface interface {
	SetControlsEnabled(enabled bool)
}

// RecorderFactory creates the recording capability for one session. A
// nil factory, or a factory error, means the host cannot record;
// capture proceeds without a clip.
type RecorderFactory func(sampleRate int) (recorder.Recorder, error)

// ElementTransform is one element's rendered state within a frame.
type ElementTransform struct {
	ID    int
	Glyph string
	motion.Transform
}

// FrameSnapshot is what the frame loop hands the rendering surface
// once per animation frame.
type FrameSnapshot struct {
	Elapsed    time.Duration
	Amplitude  float64
	MicOn      bool
	Transforms []ElementTransform
}

type Config struct {
	Capture     audio.Capture
	NewRecorder RecorderFactory
	Registry    *binding.Registry
	Config      *config.Config
	Logger      zerolog.Logger
	Controls    ControlSurface   // optional
	Metrics     *metrics.Metrics // optional
	Clock       func() time.Time // optional, for tests
	Seed        int64            // element randomization seed; 0 means time-based
}

// Session owns one capture/record/animate sequence. Exactly one may be
// capturing per Session instance, enforced by the Idle/Capturing/Ended
// state machine rather than by callers.
type Session struct {
	capture     audio.Capture
	newRecorder RecorderFactory
	registry    *binding.Registry
	cfg         *config.Config
	log         zerolog.Logger
	controls    ControlSurface
	met         *metrics.Metrics
	clock       func() time.Time
	notifier    *Notifier
	frames      chan FrameSnapshot

	mu         sync.Mutex
	state      State
	starting   bool // a Start is in flight; gates re-entry across the unlocked grant wait
	generation int  // bumped on every transition; stale goroutines check it
	micOn      bool
	tunables   config.Tunables
	sampler    *dsp.Sampler
	mapper     *motion.Mapper
	rebind     bool // bind sweep pending: set at start and on registry mutations
	rec        recorder.Recorder
	start      time.Time // session start, fixes clip duration
	timeBase   time.Time // animation time base, shifted over stalls
	lastFrame  time.Time
	latest     []float32
	window     []uint8
	cancel     context.CancelFunc
}

func New(cfg Config) (*Session, error) {
	if cfg.Capture == nil {
		return nil, fmt.Errorf("session requires a capture implementation")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("session requires an element registry")
	}
	if cfg.Config == nil {
		return nil, fmt.Errorf("session requires a config")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	t := cfg.Config.Tunables
	return &Session{
		capture:     cfg.Capture,
		newRecorder: cfg.NewRecorder,
		registry:    cfg.Registry,
		cfg:         cfg.Config,
		log:         cfg.Logger,
		controls:    cfg.Controls,
		met:         cfg.Metrics,
		clock:       clock,
		notifier:    NewNotifier(),
		frames:      make(chan FrameSnapshot, 1),
		state:       Idle,
		micOn:       true,
		tunables:    t,
		sampler:     dsp.NewSampler(t.SmoothingFactor),
		mapper:      motion.NewMapper(motionParams(t), seed),
	}, nil
}

func motionParams(t config.Tunables) motion.Params {
	return motion.Params{
		RotationDivisor:            t.RotationDivisor,
		MaxAdditionalRotation:      t.MaxAdditionalRotation,
		BaseScaleMultiplier:        t.BaseScaleMultiplier,
		DynamicLerpMin:             t.DynamicLerpMin,
		DynamicLerpAudioMultiplier: t.DynamicLerpAudioMultiplier,
	}
}

// Subscribe registers a lifecycle event listener.
func (s *Session) Subscribe(fn func(Event)) func() {
	return s.notifier.Subscribe(fn)
}

// Frames delivers one snapshot per animation frame. Stale snapshots
// are dropped if the surface falls behind.
func (s *Session) Frames() <-chan FrameSnapshot {
	return s.frames
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) MicOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micOn
}

// UpdateTunables replaces the motion tunables between sessions.
func (s *Session) UpdateTunables(t config.Tunables) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Capturing {
		return fmt.Errorf("cannot update tunables while capturing")
	}
	return s.cfg.Update(t)
}

// Start moves Idle to Capturing: acquires the microphone, snapshots
// the tunables, begins recording when a recorder is available, and
// launches the frame loop. Mic denial returns a PermissionError; a
// missing recorder capability is non-fatal.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		return fmt.Errorf("session start already in progress")
	}
	if s.state != Idle {
		s.mu.Unlock()
		return fmt.Errorf("cannot start a session that is %s", s.state)
	}
	s.starting = true
	t := s.cfg.Tunables
	s.tunables = t
	s.sampler = dsp.NewSampler(t.SmoothingFactor)
	s.mapper.SetParams(motionParams(t))
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	deviceID := s.cfg.Audio.DeviceID
	sampleRate := s.cfg.Audio.SampleRate
	s.mu.Unlock()

	audioCh := make(chan []float32, 8)
	if err := s.capture.Start(ctx, deviceID, sampleRate, audioCh); err != nil {
		cancel()
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
		return &PermissionError{Err: err}
	}
	label := audio.DeviceLabel(s.capture, deviceID)

	s.mu.Lock()
	s.starting = false
	if gen != s.generation {
		// Reset raced the grant; release the handles and walk away.
		s.mu.Unlock()
		cancel()
		s.capture.Stop()
		return fmt.Errorf("session was reset while starting")
	}
	now := s.clock()
	s.state = Capturing
	s.micOn = true
	s.start = now
	s.timeBase = now
	s.lastFrame = now
	s.latest = nil
	s.rebind = true

	details := "capture started"
	if s.newRecorder != nil {
		rec, err := s.newRecorder(sampleRate)
		if err == nil {
			err = rec.Start()
		}
		if err != nil {
			recErr := &RecorderUnavailableError{Err: err}
			s.log.Warn().Err(recErr).Msg("Recording unavailable, capture continues")
			details = "capture started, recording unavailable"
		} else {
			s.rec = rec
		}
	} else {
		details = "capture started, recording unavailable"
	}
	s.mu.Unlock()

	frameRate := t.FrameRate
	if frameRate <= 0 {
		frameRate = 30
	}
	go s.consumeFrames(ctx, gen, audioCh)
	go s.frameLoop(ctx, gen, time.Second/time.Duration(frameRate))

	if s.met != nil {
		s.met.SessionsStarted.Inc()
	}
	s.log.Info().Str("device", label).Msg("Session started")
	s.notifier.emit(Event{
		Kind:            EventStart,
		Timestamp:       now,
		Details:         details,
		IsMicOn:         true,
		MicrophoneLabel: label,
	})
	return nil
}

// consumeFrames stores the freshest capture frame for the frame loop
// and feeds the recorder. While the mic is muted, frames are zeroed so
// the sampler reads silence and the (paused) recorder stores nothing.
func (s *Session) consumeFrames(ctx context.Context, gen int, in <-chan []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-in:
			if !ok {
				return
			}
			s.mu.Lock()
			if gen != s.generation || s.state != Capturing {
				s.mu.Unlock()
				return
			}
			if !s.micOn {
				for i := range frame {
					frame[i] = 0
				}
			}
			s.latest = frame
			rec := s.rec
			s.mu.Unlock()

			if rec != nil {
				rec.Write(frame)
			}
		}
	}
}

// frameLoop is the self-rescheduling animation callback: the next
// frame is armed only after the current frame's work completes, so at
// most one frame is ever outstanding.
func (s *Session) frameLoop(ctx context.Context, gen int, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if !s.stepFrame(gen) {
				return
			}
			timer.Reset(interval)
		}
	}
}

func (s *Session) stepFrame(gen int) bool {
	s.mu.Lock()
	if gen != s.generation || s.state != Capturing {
		s.mu.Unlock()
		return false
	}

	select {
	case <-s.registry.Mutations():
		s.rebind = true
		s.log.Debug().Int("elements", s.registry.Len()).Msg("Rebinding surface elements")
	default:
	}

	now := s.clock()
	delta := now.Sub(s.lastFrame)
	if max := s.tunables.MaxFrameDelta(); max > 0 && delta > max {
		// Long stall (suspended tab analog): freeze the time base over
		// the gap instead of jumping every element forward.
		s.timeBase = s.timeBase.Add(delta)
	}
	s.lastFrame = now

	frame := s.latest
	s.latest = nil
	if frame != nil {
		s.window = dsp.Quantize(frame, s.window)
		s.sampler.Process(s.window)
	}
	amp := s.sampler.Smoothed()
	elapsed := now.Sub(s.timeBase)

	els := s.registry.Elements()
	snap := FrameSnapshot{
		Elapsed:    elapsed,
		Amplitude:  amp,
		MicOn:      s.micOn,
		Transforms: make([]ElementTransform, 0, len(els)),
	}
	if s.rebind {
		// Binding is idempotent, so the sweep covers both new and
		// already-bound elements.
		for _, el := range els {
			s.mapper.Bind(el.ID, elapsed, amp)
		}
		s.rebind = false
	}
	for _, el := range els {
		tr, ok := s.mapper.Step(el.ID, elapsed, amp)
		if !ok {
			// Added between the signal drain and the snapshot; the
			// pending signal binds it next frame.
			continue
		}
		snap.Transforms = append(snap.Transforms, ElementTransform{ID: el.ID, Glyph: el.Glyph, Transform: tr})
	}
	s.mu.Unlock()

	// Latest-wins delivery to the surface.
	select {
	case s.frames <- snap:
	default:
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- snap:
		default:
		}
	}

	if s.met != nil {
		s.met.FramesRendered.Inc()
		s.met.SmoothedLevel.Set(amp)
	}
	return true
}

// ToggleMic flips the mic-enabled flag while capturing. The recorder
// is paused and resumed in lockstep so muted intervals leave no
// silence in the clip, and capture frames are zeroed so the sampler
// reads silence.
func (s *Session) ToggleMic() error {
	s.mu.Lock()
	if s.state != Capturing {
		s.mu.Unlock()
		return fmt.Errorf("cannot toggle mic while %s", s.state)
	}
	s.micOn = !s.micOn
	mic := s.micOn
	rec := s.rec
	now := s.clock()
	s.mu.Unlock()

	if rec != nil && rec.Active() {
		var err error
		if mic {
			err = rec.Resume()
		} else {
			err = rec.Pause()
		}
		if err != nil {
			s.log.Error().Err(err).Msg("Recorder pause/resume failed")
		}
	}

	if s.met != nil {
		s.met.MicToggles.Inc()
	}
	details := "microphone muted"
	if mic {
		details = "microphone unmuted"
	}
	s.log.Info().Bool("mic_on", mic).Msg("Mic toggled")
	s.notifier.emit(Event{Kind: EventToggleMic, Timestamp: now, IsMicOn: mic, Details: details})
	return nil
}

// End moves Capturing to Ended: cancels the frame loop, releases the
// microphone, disables controls, then resolves the recorder stop,
// analyzes the assembled clip and emits the end notification. The
// notification fires only after both the stop and the analysis have
// settled.
func (s *Session) End() error {
	s.mu.Lock()
	if s.state != Capturing {
		s.mu.Unlock()
		return fmt.Errorf("cannot end a session that is %s", s.state)
	}
	s.state = Ended
	s.generation++
	cancel := s.cancel
	s.cancel = nil
	rec := s.rec
	s.rec = nil
	start := s.start
	threshold := s.tunables.SilenceThreshold
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := s.capture.Stop(); err != nil {
		s.log.Debug().Err(err).Msg("Capture stop during end")
	}
	if s.controls != nil {
		s.controls.SetControlsEnabled(false)
	}

	now := s.clock()
	duration := now.Sub(start)
	ev := Event{Kind: EventEnd, Timestamp: now}

	if rec == nil {
		ev.Details = "no audio recorded"
	} else {
		res, err := rec.Stop()
		switch {
		case err != nil:
			s.log.Error().Err(err).Msg("Recorder stop failed")
			ev.Details = "recording failed"
		case res.Clip == nil:
			ev.Details = "no audio recorded"
		default:
			ev.Details = "capture ended"
			ev.Clip = res.Clip
			ev.ClipBase64 = base64.StdEncoding.EncodeToString(res.Clip)
			ev.FileName = fmt.Sprintf("pulseviz-%s.wav", uuid.NewString()[:8])
			ev.ClipMeta = &ClipMeta{Duration: duration, Size: len(res.Clip), MIMEType: "audio/wav"}

			analysis, aerr := analyzer.Analyze(res.Clip, threshold)
			if aerr != nil {
				s.log.Warn().Err(aerr).Msg("Clip analysis failed")
				ev.AnalysisErr = aerr
			} else {
				ev.Analysis = &analysis
			}

			if s.met != nil {
				s.met.ClipBytes.Add(float64(len(res.Clip)))
				s.met.ClipDuration.Observe(duration.Seconds())
			}
		}
	}

	if s.met != nil {
		s.met.SessionsEnded.Inc()
	}
	s.log.Info().Dur("duration", duration).Msg("Session ended")
	s.notifier.emit(ev)
	return nil
}

// Reset tears everything down defensively and returns to Idle. It
// tolerates already-stopped handles and never fails, so it is safe
// from any state.
func (s *Session) Reset() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	rec := s.rec
	s.rec = nil
	s.state = Idle
	s.generation++
	s.micOn = true
	s.latest = nil
	s.sampler.Reset()
	s.start = time.Time{}
	s.timeBase = time.Time{}
	s.lastFrame = time.Time{}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := s.capture.Stop(); err != nil {
		s.log.Debug().Err(err).Msg("Capture stop during reset")
	}
	if rec != nil {
		if _, err := rec.Stop(); err != nil && err != recorder.ErrStopped {
			s.log.Debug().Err(err).Msg("Recorder stop during reset")
		}
	}
	if s.controls != nil {
		s.controls.SetControlsEnabled(true)
	}
	s.log.Debug().Msg("Session reset")
}
