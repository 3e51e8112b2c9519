package derivable

import (
	"errors"
	"testing"
)

func TestDefaultRuntimeFacade(t *testing.T) {
	price := NewAtom(10.0)
	qty := NewAtom(3)
	total := NewDerivation(func() (float64, error) {
		p, err := price.Get()
		if err != nil {
			return 0, err
		}
		q, err := qty.Get()
		if err != nil {
			return 0, err
		}
		return p * float64(q), nil
	})
	if total.Runtime() != Default() {
		t.Fatal("expected nodes without WithRuntime to use the default runtime")
	}

	var got []float64
	r := total.React(func(v float64, err error) {
		if err == nil {
			got = append(got, v)
		}
	})
	defer r.Stop()

	err := Transact(func() error {
		price.Set(12)
		qty.Set(4)
		return nil
	})
	if err != nil {
		t.Fatalf("expected commit, got %v", err)
	}
	Flush()

	if len(got) != 2 || got[0] != 30 || got[1] != 48 {
		t.Errorf("expected [30 48], got %v", got)
	}
}

func TestIsolatedRuntime(t *testing.T) {
	rt := NewRuntime()
	name := NewUnresolvedAtom[string](WithRuntime(rt))
	greeting := Derive(name, func(n string) string { return "hello " + n })

	if _, err := greeting.Get(); !IsUnresolved(err) {
		t.Errorf("expected unresolved, got %v", err)
	}

	errStop := errors.New("stop")
	err := rt.Transact(func() error {
		name.Set("ada")
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Errorf("expected errStop, got %v", err)
	}
	if _, err := greeting.Get(); !IsUnresolved(err) {
		t.Errorf("expected rollback to unresolved, got %v", err)
	}

	name.Set("ada")
	if v, _ := greeting.Get(); v != "hello ada" {
		t.Errorf("expected hello ada, got %q", v)
	}
	if c := NewConstant(1); c.Version() != 0 {
		t.Errorf("expected constant version 0, got %d", c.Version())
	}
}
