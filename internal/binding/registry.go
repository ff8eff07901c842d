package binding

import "sync"

// Element is one visual node on the rendering surface. The registry
// hands out stable IDs; all motion state lives in the mapper's side
// table keyed by that ID.
type Element struct {
	ID    int
	Glyph string
}

// Registry tracks the set of bound visual elements. Elements may be
// added at any time, including mid-session; the frame loop picks them
// up on its next pass. Adding is idempotent per glyph slot and never
// disturbs elements already present.
type Registry struct {
	mu       sync.Mutex
	elements []Element
	nextID   int
	added    chan struct{}
}

// NewRegistry creates a registry pre-bound with one element per glyph.
func NewRegistry(glyphs []string) *Registry {
	r := &Registry{added: make(chan struct{}, 1)}
	for _, g := range glyphs {
		r.add(g)
	}
	return r
}

// Add binds a new element for the glyph and signals the mutation
// channel. It returns the element's assigned ID.
func (r *Registry) Add(glyph string) int {
	r.mu.Lock()
	id := r.add(glyph)
	r.mu.Unlock()

	select {
	case r.added <- struct{}{}:
	default:
	}
	return id
}

func (r *Registry) add(glyph string) int {
	id := r.nextID
	r.nextID++
	r.elements = append(r.elements, Element{ID: id, Glyph: glyph})
	return id
}

// Elements returns a snapshot of the bound elements in bind order.
func (r *Registry) Elements() []Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Element, len(r.elements))
	copy(out, r.elements)
	return out
}

// Len returns the number of bound elements.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.elements)
}

// Mutations signals (coalesced) whenever elements are added, letting
// observers rebind without polling.
func (r *Registry) Mutations() <-chan struct{} {
	return r.added
}
