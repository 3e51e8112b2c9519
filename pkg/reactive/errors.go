package reactive

import (
	"errors"
	"fmt"
)

// ErrUnresolved is returned by Get when a node has no value yet.
//
// It is not a failure. A derivation whose compute function returns
// ErrUnresolved (or an error wrapping it) becomes unresolved itself instead
// of caching an error, so "no value yet" flows through the graph like any
// other state.
var ErrUnresolved = errors.New("reactive: unresolved")

// ErrTxnNotActive is returned when committing or aborting a transaction
// that is not the innermost active one, or that has already ended.
var ErrTxnNotActive = errors.New("reactive: transaction not active")

// ErrLoopStopped is returned by Loop.Submit once the loop has exited.
var ErrLoopStopped = errors.New("reactive: loop stopped")

// ErrTaskPanicked wraps a panic recovered by Loop.Submit.
var ErrTaskPanicked = errors.New("reactive: loop task panicked")

// IsUnresolved reports whether err signals an unresolved state.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolved)
}

// CycleError is returned when a derivation reads itself, directly or
// through other derivations, while it is being evaluated.
type CycleError struct {
	ID   uint64
	Name string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("reactive: cycle detected evaluating %q (#%d)", e.Name, e.ID)
	}
	return fmt.Sprintf("reactive: cycle detected evaluating derivation #%d", e.ID)
}

// DebugError decorates an error surfaced in debug mode with the creation
// site of the derivation or reactor it passed through.
type DebugError struct {
	Err    error
	Origin string
}

// Error implements the error interface.
func (e *DebugError) Error() string {
	return e.Err.Error() + " (created at " + e.Origin + ")"
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DebugError) Unwrap() error {
	return e.Err
}

// rawError strips one level of debug decoration.
func rawError(err error) error {
	if de, ok := err.(*DebugError); ok {
		return de.Err
	}
	return err
}
