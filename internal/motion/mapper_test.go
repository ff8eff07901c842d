package motion

import (
	"math"
	"testing"
	"time"
)

var testParams = Params{
	RotationDivisor:            50,
	MaxAdditionalRotation:      180,
	BaseScaleMultiplier:        0.5,
	DynamicLerpMin:             0.05,
	DynamicLerpAudioMultiplier: 0.25,
}

func TestPredictAtBindIsOffsetOnly(t *testing.T) {
	// With zero amplitude and zero elapsed time the prediction must be
	// exactly the element's phase offset.
	m := NewMapper(testParams, 1)
	st := &elementState{offset: 10, speed: 0.7, scaleMul: 1.2}

	rot, scale := m.predict(st, 0, 0)
	if rot != 10 {
		t.Errorf("rotation = %v, want 10", rot)
	}
	if scale != 1 {
		t.Errorf("scale = %v, want 1", scale)
	}
}

func TestBindIsIdempotent(t *testing.T) {
	m := NewMapper(testParams, 42)
	m.Bind(7, 0, 0)
	first := *m.states[7]

	// Rebinding must not re-roll random parameters or reset easing.
	m.Bind(7, 5*time.Second, 0.9)
	second := *m.states[7]
	if first != second {
		t.Errorf("rebind changed element state: %+v -> %+v", first, second)
	}
}

func TestMidSessionBindStartsAtPrediction(t *testing.T) {
	m := NewMapper(testParams, 3)
	elapsed := 2 * time.Second
	m.Bind(1, elapsed, 0.5)

	st := m.states[1]
	wantRot, wantScale := m.predict(st, elapsed, 0.5)
	if st.rotation != wantRot || st.scale != wantScale {
		t.Errorf("bound element at (%v,%v), want prediction (%v,%v)",
			st.rotation, st.scale, wantRot, wantScale)
	}

	// The first Step after binding must therefore barely move.
	before := st.rotation
	tr, ok := m.Step(1, elapsed, 0.5)
	if !ok {
		t.Fatal("Step reported unbound element")
	}
	if math.Abs(tr.Rotation-before) > 1e-9 {
		t.Errorf("first step jumped from %v to %v", before, tr.Rotation)
	}
}

func TestStepConvergesToTarget(t *testing.T) {
	m := NewMapper(testParams, 9)
	m.Bind(1, 0, 0)

	// Hold time and amplitude fixed; repeated steps must approach the
	// predicted target monotonically.
	elapsed := time.Second
	amp := 0.8
	wantRot, wantScale := m.predict(m.states[1], elapsed, amp)

	prevDist := math.Abs(m.states[1].rotation - wantRot)
	for i := 0; i < 200; i++ {
		m.Step(1, elapsed, amp)
		dist := math.Abs(m.states[1].rotation - wantRot)
		if dist > prevDist+1e-9 {
			t.Fatalf("step %d moved away from target: %v -> %v", i, prevDist, dist)
		}
		prevDist = dist
	}
	if prevDist > 1e-6 {
		t.Errorf("rotation did not converge: still %v away", prevDist)
	}
	if math.Abs(m.states[1].scale-wantScale) > 1e-6 {
		t.Errorf("scale did not converge to %v, at %v", wantScale, m.states[1].scale)
	}
}

func TestStepUnboundElement(t *testing.T) {
	m := NewMapper(testParams, 1)
	if _, ok := m.Step(99, 0, 0); ok {
		t.Error("Step returned ok for an element that was never bound")
	}
	if _, _, ok := m.Predict(99, 0, 0); ok {
		t.Error("Predict returned ok for an element that was never bound")
	}
}

func TestRandomParameterRanges(t *testing.T) {
	m := NewMapper(testParams, 7)
	for id := 0; id < 50; id++ {
		m.Bind(id, 0, 0)
		st := m.states[id]
		if st.offset < 0 || st.offset >= 360 {
			t.Errorf("element %d: offset %v out of [0,360)", id, st.offset)
		}
		if st.speed < 0.2 || st.speed >= 1.0 {
			t.Errorf("element %d: speed %v out of [0.2,1.0)", id, st.speed)
		}
		if st.scaleMul < 0.5 || st.scaleMul >= 1.5 {
			t.Errorf("element %d: scale multiplier %v out of [0.5,1.5)", id, st.scaleMul)
		}
	}
}
