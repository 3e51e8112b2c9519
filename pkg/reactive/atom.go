package reactive

// atom is the type-erased core of Atom[T].
type atom struct {
	id      uint64
	rt      *Runtime
	name    string
	st      state
	version uint64
	equals  func(x, y any) bool
	obs     observable
}

func (a *atom) nodeID() uint64    { return a.id }
func (a *atom) runtime() *Runtime { return a.rt }

func (a *atom) info() NodeInfo {
	return NodeInfo{ID: a.id, Name: a.name, Kind: KindAtom, Version: a.version}
}

func (a *atom) currentVersion() uint64         { return a.version }
func (a *atom) refresh()                       {}
func (a *atom) current() state                 { return a.st }
func (a *atom) equalFunc() func(x, y any) bool { return a.equals }
func (a *atom) addObserver(ref observerRef)    { a.obs.add(ref) }
func (a *atom) removeObserver(id uint64)       { a.obs.remove(id) }
func (a *atom) observerCount() int             { return a.obs.count() }

// get records the read and returns the current state.
func (a *atom) get() state {
	a.rt.tracker.recordObservation(a)
	return a.st
}

// set replaces the state if it differs from the current one.
// Inside a transaction the pre-transaction state is snapshotted and
// notification is deferred to the outermost commit.
func (a *atom) set(next state) {
	if a.st.equal(next, a.equals) {
		return
	}
	if tx := a.rt.topTxn(); tx != nil {
		tx.frame.record(a)
		a.st = next
		a.version++
		return
	}
	a.st = next
	a.version++
	a.obs.notify(a.id)
}

// Atom is a mutable leaf node.
//
// Reading an Atom inside a derivation makes the derivation depend on it.
// Writing a value that is equal to the current one (see WithEquals) does
// nothing: the version does not move and nobody is notified.
type Atom[T any] struct {
	a *atom
}

// NewAtom creates an atom holding initial.
func NewAtom[T any](initial T, opts ...Option) *Atom[T] {
	a := newAtom[T](opts)
	a.a.st = resolvedValue(initial)
	return a
}

// NewUnresolvedAtom creates an atom with no value. Get returns
// ErrUnresolved until the first Set.
func NewUnresolvedAtom[T any](opts ...Option) *Atom[T] {
	return newAtom[T](opts)
}

func newAtom[T any](opts []Option) *Atom[T] {
	c := applyOptions(opts)
	return &Atom[T]{a: &atom{
		id:     nextID(),
		rt:     c.rt,
		name:   c.name,
		equals: eraseEquals(defaultEquals[T]),
	}}
}

// Get returns the current value and records the read. Returns
// ErrUnresolved if the atom has no value.
func (a *Atom[T]) Get() (T, error) {
	return typedState[T](a.a.get()).Get()
}

// Peek returns the current value without recording the read.
func (a *Atom[T]) Peek() (T, error) {
	return typedState[T](a.a.st).Get()
}

// State returns the current state without recording the read.
func (a *Atom[T]) State() State[T] {
	return typedState[T](a.a.st)
}

// Set replaces the value. Does nothing if v equals the current value.
func (a *Atom[T]) Set(v T) {
	a.a.set(resolvedValue(v))
}

// Update sets the value to fn applied to the current one. An unresolved
// atom passes the zero value of T.
func (a *Atom[T]) Update(fn func(T) T) {
	cur, _ := typedState[T](a.a.st).Get()
	a.Set(fn(cur))
}

// Unset returns the atom to the unresolved state.
func (a *Atom[T]) Unset() {
	a.a.set(state{})
}

// WithEquals configures the equality function used to decide whether a
// write changes the atom. Returns the atom for chaining.
func (a *Atom[T]) WithEquals(fn func(T, T) bool) *Atom[T] {
	a.a.equals = eraseEquals(fn)
	return a
}

// React starts a reactor on this atom. See React.
func (a *Atom[T]) React(fn func(T, error), opts ...ReactorOption) *Reactor {
	return React[T](a, fn, opts...)
}

// ID returns the unique identifier for this atom.
func (a *Atom[T]) ID() uint64 { return a.a.id }

// Name returns the display name, if any.
func (a *Atom[T]) Name() string { return a.a.name }

// Version returns the number of changes applied to the atom.
func (a *Atom[T]) Version() uint64 { return a.a.version }

// Observers returns the number of live direct observers.
func (a *Atom[T]) Observers() int { return a.a.observerCount() }

// Runtime returns the runtime the atom is bound to.
func (a *Atom[T]) Runtime() *Runtime { return a.a.rt }

// Info describes the atom.
func (a *Atom[T]) Info() NodeInfo { return a.a.info() }

func (a *Atom[T]) node() node { return a.a }
