package reactive

// constant is the type-erased core of Constant[T].
type constant struct {
	id     uint64
	rt     *Runtime
	name   string
	st     state
	equals func(x, y any) bool
}

func (c *constant) nodeID() uint64    { return c.id }
func (c *constant) runtime() *Runtime { return c.rt }

func (c *constant) info() NodeInfo {
	return NodeInfo{ID: c.id, Name: c.name, Kind: KindConstant}
}

// A constant never changes, so it keeps no observers.
func (c *constant) currentVersion() uint64         { return 0 }
func (c *constant) refresh()                       {}
func (c *constant) current() state                 { return c.st }
func (c *constant) equalFunc() func(x, y any) bool { return c.equals }
func (c *constant) addObserver(observerRef)        {}
func (c *constant) removeObserver(uint64)          {}
func (c *constant) observerCount() int             { return 0 }

// Constant is an immutable leaf node. Its version is always 0.
type Constant[T any] struct {
	c *constant
}

// NewConstant creates a constant holding v.
func NewConstant[T any](v T, opts ...Option) *Constant[T] {
	cfg := applyOptions(opts)
	return &Constant[T]{c: &constant{
		id:     nextID(),
		rt:     cfg.rt,
		name:   cfg.name,
		st:     resolvedValue(v),
		equals: eraseEquals(defaultEquals[T]),
	}}
}

// Get returns the value. The read is recorded like any other so the
// enclosing derivation lists the constant among its dependencies.
func (c *Constant[T]) Get() (T, error) {
	c.c.rt.tracker.recordObservation(c.c)
	return typedState[T](c.c.st).Get()
}

// Peek returns the value without recording the read.
func (c *Constant[T]) Peek() (T, error) {
	return typedState[T](c.c.st).Get()
}

// State returns the constant's state.
func (c *Constant[T]) State() State[T] {
	return typedState[T](c.c.st)
}

// React starts a reactor on this constant. It delivers once.
func (c *Constant[T]) React(fn func(T, error), opts ...ReactorOption) *Reactor {
	return React[T](c, fn, opts...)
}

// ID returns the unique identifier for this constant.
func (c *Constant[T]) ID() uint64 { return c.c.id }

// Version always returns 0.
func (c *Constant[T]) Version() uint64 { return 0 }

// Observers always returns 0.
func (c *Constant[T]) Observers() int { return 0 }

// Runtime returns the runtime the constant is bound to.
func (c *Constant[T]) Runtime() *Runtime { return c.c.rt }

// Info describes the constant.
func (c *Constant[T]) Info() NodeInfo { return c.c.info() }

func (c *Constant[T]) node() node { return c.c }
