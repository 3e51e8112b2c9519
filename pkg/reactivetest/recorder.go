package reactivetest

import (
	"reflect"
	"testing"

	"github.com/vango-dev/derivable/pkg/reactive"
)

// Delivery is one reactor callback captured by a Recorder.
type Delivery[T any] struct {
	Value T
	Err   error
}

// Recorder captures what a reactor delivers.
type Recorder[T any] struct {
	t          testing.TB
	reactor    *reactive.Reactor
	deliveries []Delivery[T]
}

// Record starts a reactor on d that records every delivery. The reactor
// is stopped when the test ends.
func Record[T any](t testing.TB, d reactive.Derivable[T], opts ...reactive.ReactorOption) *Recorder[T] {
	t.Helper()
	r := &Recorder[T]{t: t}
	r.reactor = reactive.React(d, func(v T, err error) {
		r.deliveries = append(r.deliveries, Delivery[T]{Value: v, Err: err})
	}, opts...)
	t.Cleanup(r.reactor.Stop)
	return r
}

// Reactor returns the underlying reactor.
func (r *Recorder[T]) Reactor() *reactive.Reactor {
	return r.reactor
}

// Deliveries returns a copy of everything recorded so far.
func (r *Recorder[T]) Deliveries() []Delivery[T] {
	return append([]Delivery[T](nil), r.deliveries...)
}

// Values returns the delivered values, skipping error deliveries.
func (r *Recorder[T]) Values() []T {
	var out []T
	for _, d := range r.deliveries {
		if d.Err == nil {
			out = append(out, d.Value)
		}
	}
	return out
}

// Errors returns the delivered errors.
func (r *Recorder[T]) Errors() []error {
	var out []error
	for _, d := range r.deliveries {
		if d.Err != nil {
			out = append(out, d.Err)
		}
	}
	return out
}

// Len returns the number of deliveries.
func (r *Recorder[T]) Len() int {
	return len(r.deliveries)
}

// Last returns the most recent delivery. ok is false if nothing was
// delivered yet.
func (r *Recorder[T]) Last() (d Delivery[T], ok bool) {
	if len(r.deliveries) == 0 {
		return d, false
	}
	return r.deliveries[len(r.deliveries)-1], true
}

// Reset forgets everything recorded so far.
func (r *Recorder[T]) Reset() {
	r.deliveries = nil
}

// Stop stops the reactor.
func (r *Recorder[T]) Stop() {
	r.reactor.Stop()
}

// ExpectValues asserts that exactly want was delivered, in order, with no
// errors.
//
// Example:
//
//	rec.ExpectValues(2, 6)
func (r *Recorder[T]) ExpectValues(want ...T) {
	r.t.Helper()
	if errs := r.Errors(); len(errs) > 0 {
		r.t.Errorf("expected no error deliveries, got %v", errs)
	}
	got := r.Values()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		r.t.Errorf("expected deliveries %v, got %v", want, got)
	}
}

// ExpectCount asserts the number of deliveries.
func (r *Recorder[T]) ExpectCount(n int) {
	r.t.Helper()
	if len(r.deliveries) != n {
		r.t.Errorf("expected %d deliveries, got %d", n, len(r.deliveries))
	}
}
