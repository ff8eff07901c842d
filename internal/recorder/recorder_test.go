package recorder

import (
	"testing"
)

func TestRecorderAssemblesFragments(t *testing.T) {
	r, err := New(16000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r.Write([]float32{0.5, -0.5})
	r.Write([]float32{0.25})

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.Samples != 3 {
		t.Errorf("samples = %d, want 3", res.Samples)
	}
	if len(res.Clip) != 44+3*2 {
		t.Errorf("clip size = %d, want %d", len(res.Clip), 44+3*2)
	}
}

func TestRecorderDropsWhilePaused(t *testing.T) {
	r, _ := New(16000)
	r.Start()
	r.Write([]float32{0.1})
	if err := r.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	r.Write([]float32{0.2, 0.3})
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	r.Write([]float32{0.4})

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.Samples != 2 {
		t.Errorf("samples = %d, want 2 (paused frames must be dropped)", res.Samples)
	}
}

func TestRecorderPauseResumeMustBalance(t *testing.T) {
	r, _ := New(16000)
	r.Start()
	if err := r.Resume(); err == nil {
		t.Error("Resume on a running recorder should fail")
	}
	r.Pause()
	if err := r.Pause(); err == nil {
		t.Error("Pause on a paused recorder should fail")
	}
}

func TestRecorderEmptyStop(t *testing.T) {
	r, _ := New(16000)
	r.Start()
	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.Clip != nil {
		t.Error("expected nil clip when nothing was recorded")
	}
}

func TestRecorderStopResolvesOnce(t *testing.T) {
	r, _ := New(16000)
	r.Start()
	if _, err := r.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if _, err := r.Stop(); err != ErrStopped {
		t.Errorf("second Stop err = %v, want ErrStopped", err)
	}
	if r.Active() {
		t.Error("recorder still active after stop")
	}
	r.Write([]float32{0.1}) // must be a no-op, not a panic
}
