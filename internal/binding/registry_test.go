package binding

import "testing"

func TestRegistryAssignsStableIDs(t *testing.T) {
	r := NewRegistry([]string{"●", "◆", "▲"})
	els := r.Elements()
	if len(els) != 3 {
		t.Fatalf("len = %d, want 3", len(els))
	}
	for i, e := range els {
		if e.ID != i {
			t.Errorf("element %d has ID %d", i, e.ID)
		}
	}

	id := r.Add("★")
	if id != 3 {
		t.Errorf("new element ID = %d, want 3", id)
	}
	// Existing elements keep their identity after a mutation.
	after := r.Elements()
	for i := 0; i < 3; i++ {
		if after[i] != els[i] {
			t.Errorf("element %d changed after Add: %+v -> %+v", i, els[i], after[i])
		}
	}
}

func TestRegistrySignalsMutations(t *testing.T) {
	r := NewRegistry(nil)
	r.Add("●")
	select {
	case <-r.Mutations():
	default:
		t.Error("no mutation signal after Add")
	}

	// Signals coalesce; a burst of adds never blocks.
	for i := 0; i < 10; i++ {
		r.Add("●")
	}
	if r.Len() != 11 {
		t.Errorf("len = %d, want 11", r.Len())
	}
}
