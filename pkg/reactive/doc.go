// Package reactive provides a dependency-tracking computation engine.
//
// Mutable state cells (atoms) feed pure computed values (derivations) that
// are recomputed automatically when the values they read change. Reactors
// are terminal subscriptions that run side effects whenever the value of
// their target changes.
//
// # Core Types
//
// Atom[T] is a mutable leaf:
//
//	price := reactive.NewAtom(10)
//	v, err := price.Get() // read, tracked when called inside a derivation
//	price.Set(12)         // write, notifies observers if the value changed
//
// Derivation[T] is a memoized computation over other nodes:
//
//	total := reactive.Derive(price, func(p int) int { return p * qty })
//	v, err := total.Get() // recomputes only if a dependency's version moved
//
// Reactor delivers every new resolved value of its target:
//
//	r := total.React(func(v int, err error) {
//	    fmt.Println("total is", v)
//	})
//	defer r.Stop()
//
// # Evaluation Model
//
// Mutations push a "possibly stale" notification through the graph; nothing
// recomputes eagerly. Reads pull: a stale derivation first checks whether
// any dependency's version actually moved and recomputes only then.
// Reactors never run inline with a mutation. They are scheduled on the
// Runtime's Scheduler and run when the current unit of work is flushed.
//
// # Transactions
//
// Runtime.Transact groups atom writes. Observers are notified once, after
// the outermost transaction commits. A returned error or a panic rolls every
// atom back to its state at transaction entry:
//
//	err := rt.Transact(func() error {
//	    a.Set(1)
//	    b.Set(2)
//	    return validate()
//	})
//
// # Unresolved State
//
// A node may be unresolved ("no value yet"). Get reports this with
// ErrUnresolved, which is a signal rather than a failure. A derivation
// whose compute function returns ErrUnresolved becomes unresolved itself.
//
// # Threading
//
// A Runtime is single threaded: all reads, writes and flushes must happen on
// one goroutine at a time. Loop serializes work from many goroutines onto
// one. Back-edges from a node to its observers are weak pointers, so an
// unobserved derivation is collected once the program drops it.
package reactive
