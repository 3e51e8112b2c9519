package reactivetest

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"testing"

	"github.com/vango-dev/derivable/pkg/reactive"
)

// NewRuntime creates a runtime for one test.
//
// The runtime runs in debug mode and logs to t.Log. Extra options are
// applied after the defaults. At cleanup the runtime is flushed and the
// test fails if a transaction was left open.
func NewRuntime(t testing.TB, opts ...reactive.RuntimeOption) *reactive.Runtime {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := []reactive.RuntimeOption{
		reactive.WithScheduler(reactive.NewQueue()),
		reactive.WithLogger(logger),
		reactive.WithDebug(true),
	}
	rt := reactive.NewRuntime(append(base, opts...)...)
	t.Cleanup(func() {
		if rt.InTxn() {
			t.Errorf("test ended with %d open transaction frame(s)", rt.TxnDepth())
		}
	})
	return rt
}

// testWriter forwards log output to t.Log.
type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// ExpectValue asserts that d currently holds want.
//
// Example:
//
//	reactivetest.ExpectValue(t, total, 42)
func ExpectValue[T any](t testing.TB, d reactive.Derivable[T], want T) {
	t.Helper()
	got, err := d.Peek()
	if err != nil {
		t.Errorf("expected value %v, got error: %v", want, err)
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected value %v, got %v", want, got)
	}
}

// ExpectUnresolved asserts that d has no value yet.
func ExpectUnresolved[T any](t testing.TB, d reactive.Derivable[T]) {
	t.Helper()
	if st := d.State(); !st.Unresolved() {
		t.Errorf("expected unresolved, got %s", describe(st))
	}
}

// ExpectError asserts that d holds an error matching target (errors.Is).
func ExpectError[T any](t testing.TB, d reactive.Derivable[T], target error) {
	t.Helper()
	st := d.State()
	if !st.Failed() {
		t.Errorf("expected error %v, got %s", target, describe(st))
		return
	}
	if !errors.Is(st.Err, target) {
		t.Errorf("expected error %v, got %v", target, st.Err)
	}
}

func describe[T any](st reactive.State[T]) string {
	switch {
	case st.Unresolved():
		return "unresolved"
	case st.Failed():
		return fmt.Sprintf("error %v", st.Err)
	default:
		return fmt.Sprintf("value %v", st.Value)
	}
}
