package reactive

import (
	"testing"
)

// Benchmarks for the engine core.
// Rough targets:
// - Atom.Get() (no tracking): < 10 ns
// - Derivation.Get() (cached): < 20 ns
// - Atom.Set() (10 observers): < 300 ns
// - Transact (100 writes): < 10 µs

func BenchmarkAtomGet(b *testing.B) {
	rt := NewRuntime()
	a := NewAtom(42, WithRuntime(rt))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = a.Get()
	}
}

func BenchmarkAtomSetNoObservers(b *testing.B) {
	rt := NewRuntime()
	a := NewAtom(0, WithRuntime(rt))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		a.Set(i)
	}
}

func BenchmarkAtomSet10Observers(b *testing.B) {
	rt := NewRuntime()
	a := NewAtom(0, WithRuntime(rt))
	ds := make([]*Derivation[int], 10)
	for i := range ds {
		ds[i] = Derive(a, func(n int) int { return n })
		_, _ = ds[i].Get()
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		a.Set(i)
		for _, d := range ds {
			_, _ = d.Get()
		}
	}
}

func BenchmarkDerivationGetCached(b *testing.B) {
	rt := NewRuntime()
	a := NewAtom(21, WithRuntime(rt))
	d := Derive(a, func(n int) int { return n * 2 })
	_, _ = d.Get()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = d.Get()
	}
}

func BenchmarkDerivationChain(b *testing.B) {
	rt := NewRuntime()
	a := NewAtom(0, WithRuntime(rt))
	var tail Derivable[int] = a
	for i := 0; i < 10; i++ {
		tail = Derive(tail, func(n int) int { return n + 1 })
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		a.Set(i)
		_, _ = tail.Get()
	}
}

func BenchmarkReactorFlush(b *testing.B) {
	rt := NewRuntime()
	a := NewAtom(0, WithRuntime(rt))
	r := a.React(func(int, error) {})
	defer r.Stop()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		a.Set(i + 1)
		rt.Flush()
	}
}

func BenchmarkTransact100(b *testing.B) {
	rt := NewRuntime()
	atoms := make([]*Atom[int], 100)
	for i := range atoms {
		atoms[i] = NewAtom(0, WithRuntime(rt))
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = rt.Transact(func() error {
			for _, a := range atoms {
				a.Set(i)
			}
			return nil
		})
	}
}
