package reactive

import (
	"testing"
)

func TestAtomGetSet(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))

	v, err := a.Get()
	if err != nil || v != 1 {
		t.Fatalf("expected 1, got %d (%v)", v, err)
	}

	a.Set(2)
	if v, _ := a.Get(); v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
	if a.Version() != 1 {
		t.Errorf("expected version 1, got %d", a.Version())
	}
}

func TestAtomEqualSetIsNoop(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(0, WithRuntime(rt))

	a.Set(7)
	a.Set(7)
	if a.Version() != 1 {
		t.Errorf("expected version 1 after two equal sets, got %d", a.Version())
	}

	s := NewAtom([]string{"a", "b"}, WithRuntime(rt))
	s.Set([]string{"a", "b"})
	if s.Version() != 0 {
		t.Errorf("expected structurally equal slice to be a no-op, got version %d", s.Version())
	}
}

func TestAtomWithEquals(t *testing.T) {
	rt := NewRuntime()
	type user struct {
		ID   int
		Name string
	}
	a := NewAtom(user{ID: 1, Name: "a"}, WithRuntime(rt)).
		WithEquals(func(x, y user) bool { return x.ID == y.ID })

	a.Set(user{ID: 1, Name: "renamed"})
	if a.Version() != 0 {
		t.Errorf("expected same-ID write to be ignored, got version %d", a.Version())
	}
	a.Set(user{ID: 2})
	if a.Version() != 1 {
		t.Errorf("expected version 1, got %d", a.Version())
	}
}

func TestAtomUpdate(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(10, WithRuntime(rt))
	a.Update(func(n int) int { return n + 5 })
	if v, _ := a.Peek(); v != 15 {
		t.Errorf("expected 15, got %d", v)
	}
}

func TestUnresolvedAtom(t *testing.T) {
	rt := NewRuntime()
	a := NewUnresolvedAtom[string](WithRuntime(rt))

	if _, err := a.Get(); !IsUnresolved(err) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
	if !a.State().Unresolved() {
		t.Error("expected unresolved state")
	}

	a.Set("")
	v, err := a.Get()
	if err != nil || v != "" {
		t.Errorf("expected resolved empty string, got %q (%v)", v, err)
	}
	if a.Version() != 1 {
		t.Errorf("expected resolving to bump the version, got %d", a.Version())
	}

	a.Unset()
	if _, err := a.Get(); !IsUnresolved(err) {
		t.Errorf("expected ErrUnresolved after Unset, got %v", err)
	}
	if a.Version() != 2 {
		t.Errorf("expected version 2, got %d", a.Version())
	}
}

func TestAtomNotifiesObserversSynchronously(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))
	d := Derive(a, func(n int) int { return n * 2 })

	if _, err := d.Get(); err != nil {
		t.Fatal(err)
	}
	if d.Stale() {
		t.Fatal("expected fresh derivation")
	}

	a.Set(2)
	if !d.Stale() {
		t.Error("expected derivation to be marked stale by the write")
	}
}

func TestConstant(t *testing.T) {
	rt := NewRuntime()
	c := NewConstant(5, WithRuntime(rt), WithName("five"))
	d := Derive[int](c, func(n int) int { return n + 1 })

	if v, _ := d.Get(); v != 6 {
		t.Errorf("expected 6, got %d", v)
	}
	deps := d.Dependencies()
	if len(deps) != 1 || deps[0].Kind != KindConstant || deps[0].Name != "five" {
		t.Errorf("expected the constant as only dependency, got %+v", deps)
	}
	if c.Version() != 0 || c.Observers() != 0 {
		t.Errorf("expected version 0 and no observers, got %d/%d", c.Version(), c.Observers())
	}
}
