package reactive

import (
	"time"
	"weak"
)

// derivation is the type-erased core of Derivation[T].
type derivation struct {
	id      uint64
	rt      *Runtime
	name    string
	origin  string
	compute func() (any, error)
	equals  func(x, y any) bool

	obs observable

	// ref is the weak edge handed to the nodes this derivation reads.
	ref observerRef

	// deps are the nodes read by the last computation, in read order,
	// with the version each had when it was read.
	deps []dependency

	st      state
	version uint64

	// computed is false until the first computation and again after an
	// autoCache sweep released the cache.
	computed bool

	// stale is set by a push notification: some dependency may have
	// changed. A stale derivation rechecks dependency versions on read.
	stale bool

	// dirty forces a recomputation on the next read. It is set while
	// compute runs, so a compute that panics is retried on the next read.
	// Unlike stale it does not stop notifications from being forwarded.
	dirty bool

	// computing is true while compute runs. Used for cycle detection.
	computing bool

	autoCache bool
}

func newDerivation(c nodeConfig, compute func() (any, error), equals func(x, y any) bool) *derivation {
	d := &derivation{
		id:      nextID(),
		rt:      c.rt,
		name:    c.name,
		compute: compute,
		equals:  equals,
	}
	if c.rt.debug {
		d.origin = callerSite()
	}
	d.ref = derivationRef(d)
	return d
}

// derivationRef returns a weak observer edge to d.
func derivationRef(d *derivation) observerRef {
	wp := weak.Make(d)
	return observerRef{id: d.id, get: func() observer {
		if d := wp.Value(); d != nil {
			return d
		}
		return nil
	}}
}

func (d *derivation) nodeID() uint64    { return d.id }
func (d *derivation) runtime() *Runtime { return d.rt }

func (d *derivation) info() NodeInfo {
	return NodeInfo{ID: d.id, Name: d.name, Kind: KindDerivation, Version: d.version}
}

func (d *derivation) currentVersion() uint64         { return d.version }
func (d *derivation) equalFunc() func(x, y any) bool { return d.equals }
func (d *derivation) addObserver(ref observerRef)    { d.obs.add(ref) }
func (d *derivation) removeObserver(id uint64)       { d.obs.remove(id) }
func (d *derivation) observerCount() int             { return d.obs.count() }

// handleChange marks the derivation stale and forwards the notification to
// its own observers. An unobserved derivation only marks itself.
func (d *derivation) handleChange(from uint64) {
	if d.stale {
		return
	}
	d.stale = true
	d.obs.notify(d.id)
}

// get refreshes the derivation, records the read and returns the state.
func (d *derivation) get() state {
	if d.computing {
		d.rt.tracker.recordObservation(d)
		return d.cycle()
	}
	d.refresh()
	d.rt.tracker.recordObservation(d)
	d.touchAutoCache()
	return d.st
}

// current refreshes the derivation and returns its state without
// recording the read.
func (d *derivation) current() state {
	if d.computing {
		return d.cycle()
	}
	d.refresh()
	d.touchAutoCache()
	return d.st
}

// refresh brings the cached state up to date. A stale derivation (or any
// derivation read inside a transaction) first refreshes its dependencies
// in read order and recomputes only if one of their versions moved.
func (d *derivation) refresh() {
	if d.computing {
		return
	}
	tx := d.rt.topTxn()
	if tx == nil && d.computed && !d.dirty && !d.stale {
		return
	}
	if tx != nil {
		tx.frame.touch(d)
	}
	switch {
	case !d.computed || d.dirty:
		d.recompute()
	case d.stale || tx != nil:
		if d.depsChanged() {
			d.recompute()
		} else {
			d.stale = false
		}
	}
}

// depsChanged reports whether any dependency has a version different from
// the one captured by the last computation.
func (d *derivation) depsChanged() bool {
	for _, dep := range d.deps {
		dep.node.refresh()
		if dep.node.currentVersion() != dep.version {
			return true
		}
	}
	return false
}

// recompute runs the compute function under a fresh evaluation frame and
// installs the result. The version only moves if the result differs from
// the cached one.
func (d *derivation) recompute() {
	rt := d.rt
	start := time.Now()

	// stale is cleared up front so a notification arriving while compute
	// runs (compute writing an atom it already read) is not lost. dirty
	// stays set until compute returns.
	d.stale = false
	d.dirty = true

	f := rt.tracker.push(d)
	v, err := d.run(f)
	d.dirty = false

	next := state{value: v, resolved: true}
	if err != nil {
		next = state{err: err, resolved: true}
		if IsUnresolved(err) {
			next = state{}
		}
	}

	d.installDeps(f.deps)

	changed := !d.computed || !d.st.equal(next, d.equals)
	if changed {
		if next.err != nil && d.origin != "" {
			next.err = &DebugError{Err: next.err, Origin: d.origin}
		}
		d.st = next
		d.version++
	}
	d.computed = true

	rt.hooks.Recomputed(d.info(), time.Since(start), changed, next.err)
}

// run calls compute with d on the evaluation stack. The stack is restored
// even if compute panics.
func (d *derivation) run(f *frame) (any, error) {
	d.computing = true
	defer func() {
		d.computing = false
		d.rt.tracker.pop(f)
	}()
	return d.compute()
}

// installDeps replaces the dependency list and detaches this derivation
// from nodes it no longer reads.
func (d *derivation) installDeps(next []dependency) {
	keep := make(map[uint64]struct{}, len(next))
	for _, dep := range next {
		keep[dep.node.nodeID()] = struct{}{}
	}
	for _, dep := range d.deps {
		if _, ok := keep[dep.node.nodeID()]; !ok {
			dep.node.removeObserver(d.id)
		}
	}
	d.deps = next
}

// restore resets d to a transaction snapshot and reconciles its edges
// with the restored dependency list.
func (d *derivation) restore(s derivationSnapshot) {
	keep := make(map[uint64]struct{}, len(s.deps))
	for _, dep := range s.deps {
		keep[dep.node.nodeID()] = struct{}{}
	}
	for _, dep := range d.deps {
		if _, ok := keep[dep.node.nodeID()]; !ok {
			dep.node.removeObserver(d.id)
		}
	}
	for _, dep := range s.deps {
		dep.node.addObserver(d.ref)
	}
	d.deps = s.deps
	d.st = s.st
	d.version = s.version
	d.computed = s.computed
	d.stale = s.stale
	d.dirty = s.dirty
}

// cycle reports a re-entrant read of d.
func (d *derivation) cycle() state {
	d.rt.hooks.CycleDetected(d.info())
	d.rt.logger.Debug("reactive: cycle detected", "id", d.id, "name", d.name)
	return state{err: &CycleError{ID: d.id, Name: d.name}, resolved: true}
}

// Derivation is a memoized computation over other nodes.
//
// The compute function runs lazily on the first read. Every node it reads
// becomes a dependency; the set is rebuilt on each run, so branches that
// read different nodes are tracked correctly. The result (value, error or
// unresolved) is cached and reused until a dependency's version changes.
type Derivation[T any] struct {
	d *derivation
}

// NewDerivation creates a derivation computed by fn.
//
// An error returned by fn is cached and returned verbatim by Get until a
// later computation produces something else. Returning ErrUnresolved makes
// the derivation unresolved instead.
//
// Example:
//
//	total := reactive.NewDerivation(func() (int, error) {
//	    p, err := price.Get()
//	    if err != nil {
//	        return 0, err
//	    }
//	    q, err := qty.Get()
//	    if err != nil {
//	        return 0, err
//	    }
//	    return p * q, nil
//	})
func NewDerivation[T any](fn func() (T, error), opts ...Option) *Derivation[T] {
	c := applyOptions(opts)
	compute := func() (any, error) {
		return fn()
	}
	return &Derivation[T]{d: newDerivation(c, compute, eraseEquals(defaultEquals[T]))}
}

// Derive creates a derivation that applies fn to the value of src.
// Errors and the unresolved state of src pass through unchanged.
func Derive[T, U any](src Derivable[T], fn func(T) U, opts ...Option) *Derivation[U] {
	return DeriveErr(src, func(v T) (U, error) {
		return fn(v), nil
	}, opts...)
}

// DeriveErr is like Derive for functions that can fail.
func DeriveErr[T, U any](src Derivable[T], fn func(T) (U, error), opts ...Option) *Derivation[U] {
	opts = append([]Option{WithRuntime(src.Runtime())}, opts...)
	return NewDerivation(func() (U, error) {
		v, err := src.Get()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	}, opts...)
}

// Get returns the current value, recomputing if needed, and records the
// read. Returns the cached compute error, ErrUnresolved, or a *CycleError
// if the derivation is read during its own evaluation.
func (d *Derivation[T]) Get() (T, error) {
	return typedState[T](d.d.get()).Get()
}

// Peek is Get without recording the read.
func (d *Derivation[T]) Peek() (T, error) {
	return typedState[T](d.d.current()).Get()
}

// State refreshes the derivation and returns its state without recording
// the read.
func (d *Derivation[T]) State() State[T] {
	return typedState[T](d.d.current())
}

// WithEquals configures the equality function used to decide whether a
// recomputation changed the value. Returns the derivation for chaining.
func (d *Derivation[T]) WithEquals(fn func(T, T) bool) *Derivation[T] {
	d.d.equals = eraseEquals(fn)
	return d
}

// React starts a reactor on this derivation. See React.
func (d *Derivation[T]) React(fn func(T, error), opts ...ReactorOption) *Reactor {
	return React[T](d, fn, opts...)
}

// Connected reports whether the derivation has live observers.
func (d *Derivation[T]) Connected() bool {
	return d.d.observerCount() > 0
}

// Stale reports whether a dependency notified a change that has not been
// checked yet.
func (d *Derivation[T]) Stale() bool {
	return d.d.stale || d.d.dirty
}

// Dependencies describes the nodes read by the last computation, in read
// order.
func (d *Derivation[T]) Dependencies() []NodeInfo {
	out := make([]NodeInfo, 0, len(d.d.deps))
	for _, dep := range d.d.deps {
		out = append(out, dep.node.info())
	}
	return out
}

// Origin returns the creation site captured in debug mode, or "".
func (d *Derivation[T]) Origin() string { return d.d.origin }

// ID returns the unique identifier for this derivation.
func (d *Derivation[T]) ID() uint64 { return d.d.id }

// Name returns the display name, if any.
func (d *Derivation[T]) Name() string { return d.d.name }

// Version returns the number of times the cached result changed.
func (d *Derivation[T]) Version() uint64 { return d.d.version }

// Observers returns the number of live direct observers.
func (d *Derivation[T]) Observers() int { return d.d.observerCount() }

// Runtime returns the runtime the derivation is bound to.
func (d *Derivation[T]) Runtime() *Runtime { return d.d.rt }

// Info describes the derivation.
func (d *Derivation[T]) Info() NodeInfo { return d.d.info() }

func (d *Derivation[T]) node() node { return d.d }
