// Package derivable provides the public API for the derivable reactive
// engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/derivable"
//
// Usage:
//
//	price := derivable.NewAtom(10.0)
//	qty := derivable.NewAtom(3)
//	total := derivable.NewDerivation(func() (float64, error) {
//	    p, err := price.Get()
//	    if err != nil {
//	        return 0, err
//	    }
//	    q, err := qty.Get()
//	    if err != nil {
//	        return 0, err
//	    }
//	    return p * float64(q), nil
//	})
//	r := total.React(func(v float64, err error) { fmt.Println(v, err) })
//	defer r.Stop()
//
//	derivable.Transact(func() error {
//	    price.Set(12)
//	    qty.Set(4)
//	    return nil
//	})
//	derivable.Flush() // prints 48 <nil>
//
// Nodes created without WithRuntime live on the default runtime. Use
// NewRuntime and WithRuntime for isolated graphs.
package derivable

import (
	"github.com/vango-dev/derivable/pkg/reactive"
)

// =============================================================================
// Nodes
// =============================================================================

// Derivable is a readable node: an atom, a derivation or a constant.
type Derivable[T any] = reactive.Derivable[T]

// Atom is a mutable leaf node.
type Atom[T any] = reactive.Atom[T]

// Derivation is a memoized computed node.
type Derivation[T any] = reactive.Derivation[T]

// Constant is an immutable node that never notifies.
type Constant[T any] = reactive.Constant[T]

// State is a snapshot of a node: a value, an error, or unresolved.
type State[T any] = reactive.State[T]

// NodeInfo describes a node for introspection.
type NodeInfo = reactive.NodeInfo

// Option configures a node.
type Option = reactive.Option

// WithRuntime binds a node to rt instead of the default runtime.
var WithRuntime = reactive.WithRuntime

// WithName names a node for logs, metrics and traces.
var WithName = reactive.WithName

// NewAtom creates an atom holding initial.
func NewAtom[T any](initial T, opts ...Option) *Atom[T] {
	return reactive.NewAtom(initial, opts...)
}

// NewUnresolvedAtom creates an atom with no value yet.
func NewUnresolvedAtom[T any](opts ...Option) *Atom[T] {
	return reactive.NewUnresolvedAtom[T](opts...)
}

// NewDerivation creates a derivation computed by fn.
func NewDerivation[T any](fn func() (T, error), opts ...Option) *Derivation[T] {
	return reactive.NewDerivation(fn, opts...)
}

// Derive creates a derivation that applies fn to the value of src.
func Derive[T, U any](src Derivable[T], fn func(T) U, opts ...Option) *Derivation[U] {
	return reactive.Derive(src, fn, opts...)
}

// DeriveErr is like Derive for functions that can fail.
func DeriveErr[T, U any](src Derivable[T], fn func(T) (U, error), opts ...Option) *Derivation[U] {
	return reactive.DeriveErr(src, fn, opts...)
}

// NewConstant creates a constant node.
func NewConstant[T any](v T, opts ...Option) *Constant[T] {
	return reactive.NewConstant(v, opts...)
}

// =============================================================================
// Reactors
// =============================================================================

// Reactor delivers the changes of one node to a callback.
type Reactor = reactive.Reactor

// ReactorOption configures a reactor.
type ReactorOption = reactive.ReactorOption

var (
	SkipFirst   = reactive.SkipFirst
	Once        = reactive.Once
	When        = reactive.When
	Until       = reactive.Until
	ReactorName = reactive.ReactorName
)

// React starts a reactor on d.
func React[T any](d Derivable[T], fn func(T, error), opts ...ReactorOption) *Reactor {
	return reactive.React(d, fn, opts...)
}

// =============================================================================
// Runtime
// =============================================================================

// Runtime owns the evaluation and transaction state of a graph.
type Runtime = reactive.Runtime

// RuntimeOption configures a runtime.
type RuntimeOption = reactive.RuntimeOption

// Hooks observes engine events.
type Hooks = reactive.Hooks

// Loop serializes work on a runtime onto one goroutine.
type Loop = reactive.Loop

// Txn is an open transaction frame.
type Txn = reactive.Txn

var (
	NewRuntime    = reactive.NewRuntime
	NewLoop       = reactive.NewLoop
	WithScheduler = reactive.WithScheduler
	WithLogger    = reactive.WithLogger
	WithHooks     = reactive.WithHooks
	WithDebug     = reactive.WithDebug
)

// Default returns the default runtime.
func Default() *Runtime {
	return reactive.Default()
}

// Transact runs fn in a transaction on the default runtime. A returned
// error or a panic rolls every write back.
func Transact(fn func() error) error {
	return reactive.Default().Transact(fn)
}

// Atomically runs fn inside the current transaction of the default
// runtime, or in a new one if none is open.
func Atomically(fn func() error) error {
	return reactive.Default().Atomically(fn)
}

// Flush runs the reactors and sweeps scheduled on the default runtime.
func Flush() int {
	return reactive.Default().Flush()
}

// Untracked runs fn on the default runtime without recording reads.
func Untracked(fn func()) {
	reactive.Untracked(fn)
}

// =============================================================================
// Errors
// =============================================================================

var (
	ErrUnresolved   = reactive.ErrUnresolved
	ErrTxnNotActive = reactive.ErrTxnNotActive
	ErrLoopStopped  = reactive.ErrLoopStopped
	ErrTaskPanicked = reactive.ErrTaskPanicked
)

// CycleError reports a derivation that read itself.
type CycleError = reactive.CycleError

// IsUnresolved reports whether err signals an unresolved state.
func IsUnresolved(err error) bool {
	return reactive.IsUnresolved(err)
}
