package motion

import (
	"math/rand"
	"time"
)

// Params are the tunables that shape the amplitude-to-motion mapping.
// They are fixed for the duration of a session.
type Params struct {
	// RotationDivisor scales elapsed milliseconds down to degrees of
	// idle drift.
	RotationDivisor float64
	// MaxAdditionalRotation is the extra rotation, in degrees, applied
	// at full amplitude.
	MaxAdditionalRotation float64
	// BaseScaleMultiplier scales the amplitude contribution to element
	// growth.
	BaseScaleMultiplier float64
	// DynamicLerpMin and DynamicLerpAudioMultiplier set the easing
	// blend: quiet audio drifts slowly, loud audio tracks snappily.
	DynamicLerpMin             float64
	DynamicLerpAudioMultiplier float64
}

// Transform is the rendered state of one element for a single frame.
type Transform struct {
	Rotation float64 // degrees
	Scale    float64
	OriginX  float64 // transform origin, percent
	OriginY  float64
}

// elementState carries the per-element motion state. The random
// parameters are fixed at bind time; rotation and scale are eased
// toward their targets each frame.
type elementState struct {
	offset   float64
	speed    float64
	scaleMul float64
	originX  float64
	originY  float64

	rotation float64
	scale    float64
}

// Mapper converts smoothed amplitude and elapsed time into eased
// per-element transforms. Element state lives in a side table keyed by
// element ID, so the rendering surface never carries motion state.
// Not safe for concurrent use; the session frame loop owns it.
type Mapper struct {
	params Params
	rng    *rand.Rand
	states map[int]*elementState
}

// NewMapper creates a mapper. The seed fixes the per-element random
// parameters, which keeps tests deterministic.
func NewMapper(p Params, seed int64) *Mapper {
	return &Mapper{
		params: p,
		rng:    rand.New(rand.NewSource(seed)),
		states: make(map[int]*elementState),
	}
}

// SetParams replaces the tunables. Element state is untouched, so a
// new session keeps its elements' identities while picking up updated
// motion parameters.
func (m *Mapper) SetParams(p Params) {
	m.params = p
}

// Bind registers an element if it has not been seen before. A new
// element gets random phase, speed, scale multiplier and origin, and
// starts at its currently-predicted rotation and scale so a mid-session
// bind does not visibly jump. Binding an already-known element is a
// no-op: its random parameters are never re-rolled.
func (m *Mapper) Bind(id int, elapsed time.Duration, amplitude float64) {
	if _, ok := m.states[id]; ok {
		return
	}
	st := &elementState{
		offset:   m.rng.Float64() * 360,
		speed:    0.2 + m.rng.Float64()*0.8,
		scaleMul: 0.5 + m.rng.Float64(),
		originX:  20 + m.rng.Float64()*60,
		originY:  20 + m.rng.Float64()*60,
	}
	st.rotation, st.scale = m.predict(st, elapsed, amplitude)
	m.states[id] = st
}

// Bound reports whether the element has been bound.
func (m *Mapper) Bound(id int) bool {
	_, ok := m.states[id]
	return ok
}

// Predict returns the target rotation and scale an element would have
// right now, without easing. Used at bind time and exposed for tests.
func (m *Mapper) Predict(id int, elapsed time.Duration, amplitude float64) (rotation, scale float64, ok bool) {
	st, found := m.states[id]
	if !found {
		return 0, 0, false
	}
	rotation, scale = m.predict(st, elapsed, amplitude)
	return rotation, scale, true
}

func (m *Mapper) predict(st *elementState, elapsed time.Duration, amplitude float64) (float64, float64) {
	ms := float64(elapsed.Milliseconds())
	base := st.offset + ms*st.speed/m.params.RotationDivisor
	rotation := base + amplitude*m.params.MaxAdditionalRotation
	scale := 1 + amplitude*st.scaleMul*m.params.BaseScaleMultiplier
	return rotation, scale
}

// Step eases a bound element toward its target for this frame and
// returns the resulting transform. The blend factor grows with
// amplitude so low levels drift and high levels track.
func (m *Mapper) Step(id int, elapsed time.Duration, amplitude float64) (Transform, bool) {
	st, ok := m.states[id]
	if !ok {
		return Transform{}, false
	}

	targetRot, targetScale := m.predict(st, elapsed, amplitude)
	f := m.params.DynamicLerpMin + amplitude*m.params.DynamicLerpAudioMultiplier
	st.rotation = lerp(st.rotation, targetRot, f)
	st.scale = lerp(st.scale, targetScale, f)

	return Transform{
		Rotation: st.rotation,
		Scale:    st.scale,
		OriginX:  st.originX,
		OriginY:  st.originY,
	}, true
}

// Reset forgets all element state. Bound elements are re-randomized on
// their next Bind, so this is only called when the surface itself is
// rebuilt, not between sessions.
func (m *Mapper) Reset() {
	m.states = make(map[int]*elementState)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
