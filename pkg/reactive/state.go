package reactive

// State is the resolved state of a node at one point in time.
//
// A State is in exactly one of three conditions:
//   - unresolved: Resolved is false, Value and Err are zero
//   - value: Resolved is true and Err is nil
//   - error: Resolved is true and Err holds the error returned by a
//     compute function
//
// A value whose type implements error (for example a Derivation[error])
// is an ordinary value and lives in Value, never in Err.
type State[T any] struct {
	Value    T
	Err      error
	Resolved bool
}

// Unresolved reports whether the state holds no value yet.
func (s State[T]) Unresolved() bool {
	return !s.Resolved
}

// Failed reports whether the state holds a compute error.
func (s State[T]) Failed() bool {
	return s.Resolved && s.Err != nil
}

// Get returns the value, the compute error, or ErrUnresolved.
func (s State[T]) Get() (T, error) {
	if !s.Resolved {
		var zero T
		return zero, ErrUnresolved
	}
	return s.Value, s.Err
}

// state is the type-erased form of State used inside the engine.
type state struct {
	value    any
	err      error
	resolved bool
}

// resolvedValue returns a resolved value state.
func resolvedValue(v any) state {
	return state{value: v, resolved: true}
}

// equal reports whether two states are observably the same. Values are
// compared with eq, errors by identity and unresolved states are always
// equal to each other.
func (s state) equal(o state, eq func(x, y any) bool) bool {
	if s.resolved != o.resolved {
		return false
	}
	if !s.resolved {
		return true
	}
	if (s.err != nil) != (o.err != nil) {
		return false
	}
	if s.err != nil {
		return sameError(rawError(s.err), rawError(o.err))
	}
	return eq(s.value, o.value)
}

// typedState converts an engine state to its typed form.
func typedState[T any](s state) State[T] {
	out := State[T]{Err: s.err, Resolved: s.resolved}
	if v, ok := s.value.(T); ok {
		out.Value = v
	}
	return out
}
