package reactivetest_test

import (
	"errors"
	"testing"

	"github.com/vango-dev/derivable/pkg/reactive"
	"github.com/vango-dev/derivable/pkg/reactivetest"
)

func TestRecorder(t *testing.T) {
	rt := reactivetest.NewRuntime(t)
	a := reactive.NewAtom(1, reactive.WithRuntime(rt))
	d := reactive.Derive(a, func(n int) int { return n + 1 })

	rec := reactivetest.Record(t, d)
	a.Set(5)
	rt.Flush()

	rec.ExpectValues(2, 6)
	rec.ExpectCount(2)

	last, ok := rec.Last()
	if !ok || last.Value != 6 {
		t.Errorf("expected last delivery 6, got %+v", last)
	}

	rec.Reset()
	rec.ExpectValues()
	rec.Stop()
	if rec.Reactor().Active() {
		t.Error("expected reactor to be stopped")
	}
}

func TestRecorderErrors(t *testing.T) {
	rt := reactivetest.NewRuntime(t)
	a := reactive.NewAtom(1, reactive.WithRuntime(rt))
	errNeg := errors.New("negative")
	d := reactive.DeriveErr(a, func(n int) (int, error) {
		if n < 0 {
			return 0, errNeg
		}
		return n, nil
	})

	rec := reactivetest.Record(t, d)
	a.Set(-1)
	rt.Flush()

	errs := rec.Errors()
	if len(errs) != 1 || !errors.Is(errs[0], errNeg) {
		t.Errorf("expected one %v delivery, got %v", errNeg, errs)
	}
	reactivetest.ExpectError(t, d, errNeg)
}

func TestExpectHelpers(t *testing.T) {
	rt := reactivetest.NewRuntime(t)
	a := reactive.NewUnresolvedAtom[string](reactive.WithRuntime(rt))

	reactivetest.ExpectUnresolved(t, a)
	a.Set("ready")
	reactivetest.ExpectValue(t, a, "ready")
}
