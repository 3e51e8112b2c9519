package reactive

import (
	"runtime"
	"testing"
)

// collect runs the garbage collector until cond holds or gives up.
func collect(cond func() bool) bool {
	for i := 0; i < 10; i++ {
		if cond() {
			return true
		}
		runtime.GC()
	}
	return cond()
}

func TestUnreferencedDerivationIsCollected(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))

	func() {
		d := Derive(a, func(n int) int { return n * 2 })
		if v, _ := d.Get(); v != 2 {
			t.Errorf("expected 2, got %d", v)
		}
	}()

	if !collect(func() bool { return a.Observers() == 0 }) {
		t.Errorf("expected the dropped derivation to be collected, %d observers left", a.Observers())
	}

	// Writing after collection must not reach the dead observer.
	a.Set(3)
	rt.Flush()
}

func TestReactorKeepsChainAlive(t *testing.T) {
	rt := NewRuntime()
	a := NewAtom(1, WithRuntime(rt))

	var got []int
	var r *Reactor
	func() {
		mid := Derive(a, func(n int) int { return n + 1 })
		top := Derive(mid, func(n int) int { return n * 10 })
		r = top.React(func(v int, err error) { got = append(got, v) })
	}()

	runtime.GC()
	runtime.GC()

	a.Set(2)
	rt.Flush()
	if len(got) != 2 || got[1] != 30 {
		t.Fatalf("expected [20 30], got %v", got)
	}

	r.Stop()
	if !collect(func() bool { return a.Observers() == 0 }) {
		t.Errorf("expected the chain to be collected after Stop, %d observers left", a.Observers())
	}
}
