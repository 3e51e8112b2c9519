package reactive

// Derivable is the read contract shared by atoms, constants and
// derivations. Combinators accept and return Derivables.
//
// The interface is sealed: only this package can implement it.
type Derivable[T any] interface {
	// Get returns the current value and records the read when called
	// during a derivation's evaluation.
	Get() (T, error)

	// Peek returns the current value without recording the read.
	Peek() (T, error)

	// State returns the current state without recording the read.
	State() State[T]

	// React starts a reactor delivering every new value to fn.
	React(fn func(T, error), opts ...ReactorOption) *Reactor

	ID() uint64
	Version() uint64
	Observers() int
	Runtime() *Runtime
	Info() NodeInfo

	node() node
}

var (
	_ Derivable[int] = (*Atom[int])(nil)
	_ Derivable[int] = (*Constant[int])(nil)
	_ Derivable[int] = (*Derivation[int])(nil)
)
