package reactive

import "testing"

func TestAutoCacheHoldsForOneTick(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(2, WithRuntime(rt))
	calls := 0
	sq := NewDerivation(func() (int, error) {
		calls++
		v, err := a.Get()
		return v * v, err
	}, WithRuntime(rt)).AutoCache()

	for i := 0; i < 3; i++ {
		if v, _ := sq.Get(); v != 4 {
			t.Fatalf("expected 4, got %d", v)
		}
	}
	if calls != 1 {
		t.Errorf("expected one computation within the tick, got %d", calls)
	}
	if a.Observers() != 1 {
		t.Errorf("expected the edge to exist during the tick, got %d", a.Observers())
	}

	rt.Flush()
	if a.Observers() != 0 {
		t.Errorf("expected the sweep to release the edge, got %d", a.Observers())
	}

	_, _ = sq.Get()
	if calls != 2 {
		t.Errorf("expected a recompute in the next tick, got %d", calls)
	}
}

func TestAutoCacheKeptWhileObserved(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))
	calls := 0
	d := NewDerivation(func() (int, error) {
		calls++
		return a.Get()
	}, WithRuntime(rt)).AutoCache()

	r := d.React(func(int, error) {})
	rt.Flush()
	_, _ = d.Get()
	if calls != 1 {
		t.Errorf("expected an observed autoCache derivation to stay cached, got %d computations", calls)
	}

	r.Stop()
	_, _ = d.Get()
	rt.Flush()
	if d.Connected() || a.Observers() != 0 {
		t.Error("expected the derivation to be released once unobserved")
	}
}

func TestAutoCacheKeptWhenReadByDerivation(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))
	calls := 0
	inner := NewDerivation(func() (int, error) {
		calls++
		return a.Get()
	}, WithRuntime(rt)).AutoCache()
	outer := Derive(inner, func(n int) int { return n * 10 })

	_, _ = outer.Get()
	rt.Flush()
	_, _ = outer.Get()
	_, _ = inner.Get()

	if calls != 1 {
		t.Errorf("expected inner to stay cached while outer observes it, got %d", calls)
	}
	if !inner.AutoCached() || outer.AutoCached() {
		t.Error("expected only inner to be marked autoCache")
	}
}

func TestPlainDerivationKeepsCache(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))
	calls := 0
	d := NewDerivation(func() (int, error) {
		calls++
		return a.Get()
	}, WithRuntime(rt))

	_, _ = d.Get()
	rt.Flush()
	_, _ = d.Get()

	if calls != 1 {
		t.Errorf("expected a plain derivation to keep its cache across ticks, got %d", calls)
	}
	if a.Observers() != 1 {
		t.Errorf("expected the edge to remain, got %d", a.Observers())
	}
}
