package reactive

import "weak"

// Reactor is an active subscription to one node.
//
// A running reactor is held by its Runtime and holds its target, which in
// turn holds everything the target depends on. Stopping the last reactor
// of a chain leaves the chain reachable only through weak back-edges, so
// it can be collected once the program drops it.
type Reactor struct {
	id     uint64
	rt     *Runtime
	name   string
	origin string
	target node

	deliver func(st state)

	ref observerRef

	// last is the last state handed to the callback.
	last      state
	delivered bool

	pending bool
	stopped bool

	// attached reports whether the reactor is registered on target.
	// A reactor gated by When detaches while the gate is closed.
	attached bool

	skipFirst bool
	once      bool
	when      node
	until     node
}

// ReactorOption configures a reactor.
type ReactorOption func(*reactorConfig)

type reactorConfig struct {
	name      string
	skipFirst bool
	once      bool
	when      node
	until     node
}

// SkipFirst suppresses the delivery made when the reactor starts.
func SkipFirst() ReactorOption {
	return func(c *reactorConfig) {
		c.skipFirst = true
	}
}

// Once stops the reactor after its first delivery.
func Once() ReactorOption {
	return func(c *reactorConfig) {
		c.once = true
	}
}

// When gates the reactor on pred: while pred is not true the reactor
// detaches from its target and delivers nothing. When pred turns true
// again the current value is delivered if it differs from the last one.
func When(pred Derivable[bool]) ReactorOption {
	return func(c *reactorConfig) {
		c.when = pred.node()
	}
}

// Until stops the reactor for good as soon as pred is true.
func Until(pred Derivable[bool]) ReactorOption {
	return func(c *reactorConfig) {
		c.until = pred.node()
	}
}

// ReactorName sets a display name used in logs and instrumentation.
func ReactorName(name string) ReactorOption {
	return func(c *reactorConfig) {
		c.name = name
	}
}

// React starts a reactor on d.
//
// The current state of d is evaluated and delivered to fn right away,
// unless it is unresolved. After that fn receives every new resolved
// state: a value with a nil error, or the zero value with the compute
// error. Changes are delivered from the runtime's scheduler, never inline
// with the write that caused them, and several changes within one unit of
// work collapse into a single delivery.
//
// Example:
//
//	r := reactive.React(total, func(v int, err error) {
//	    if err != nil {
//	        log.Printf("total: %v", err)
//	        return
//	    }
//	    fmt.Println("total:", v)
//	})
//	defer r.Stop()
func React[T any](d Derivable[T], fn func(T, error), opts ...ReactorOption) *Reactor {
	var c reactorConfig
	for _, opt := range opts {
		opt(&c)
	}

	rt := d.Runtime()
	r := &Reactor{
		id:        nextID(),
		rt:        rt,
		name:      c.name,
		target:    d.node(),
		skipFirst: c.skipFirst,
		once:      c.once,
		when:      c.when,
		until:     c.until,
	}
	if rt.debug {
		r.origin = callerSite()
	}
	r.deliver = func(st state) {
		ts := typedState[T](st)
		fn(ts.Value, ts.Err)
	}
	r.ref = reactorRef(r)

	rt.reactors[r.id] = r
	rt.hooks.ReactorStarted(r.info())
	if r.when != nil {
		r.when.addObserver(r.ref)
	}
	if r.until != nil {
		r.until.addObserver(r.ref)
	}
	if rt.InTxn() {
		r.attach()
		r.pending = true
		rt.waiting = append(rt.waiting, r)
		return r
	}
	r.evaluate()
	return r
}

// reactorRef returns a weak observer edge to r.
func reactorRef(r *Reactor) observerRef {
	wp := weak.Make(r)
	return observerRef{id: r.id, get: func() observer {
		if r := wp.Value(); r != nil {
			return r
		}
		return nil
	}}
}

func (r *Reactor) nodeID() uint64 { return r.id }

func (r *Reactor) info() NodeInfo {
	return NodeInfo{ID: r.id, Name: r.name, Kind: KindReactor}
}

// handleChange schedules a re-evaluation. Notifications arriving before it
// runs are absorbed.
func (r *Reactor) handleChange(from uint64) {
	if r.stopped || r.pending {
		return
	}
	r.pending = true
	r.schedule()
}

// schedule queues run on the runtime's scheduler.
func (r *Reactor) schedule() {
	r.rt.scheduler.Schedule(r.run)
}

// run is the scheduled re-evaluation.
func (r *Reactor) run() {
	if r.stopped || !r.pending {
		return
	}
	if r.rt.InTxn() {
		// Never observe a transaction in progress; retry once the
		// outermost frame has ended.
		r.rt.waiting = append(r.rt.waiting, r)
		return
	}
	r.evaluate()
}

// evaluate checks the gates, reads the target and delivers the state if it
// differs from the last delivered one.
func (r *Reactor) evaluate() {
	r.pending = false
	if r.until != nil && truthy(r.until.current()) {
		r.Stop()
		return
	}
	if r.when != nil && !truthy(r.when.current()) {
		r.detach()
		return
	}
	r.attach()

	st := r.target.current()
	if !st.resolved {
		return
	}
	if r.delivered && r.last.equal(st, r.target.equalFunc()) {
		return
	}
	first := !r.delivered
	r.last, r.delivered = st, true
	if first && r.skipFirst {
		return
	}

	if st.err != nil && r.origin != "" {
		st.err = &DebugError{Err: st.err, Origin: r.origin}
	}
	r.deliver(st)
	r.rt.hooks.ReactorDelivered(r.info(), st.err)

	if r.once {
		r.Stop()
	}
}

func (r *Reactor) attach() {
	if r.attached {
		return
	}
	r.target.addObserver(r.ref)
	r.attached = true
}

func (r *Reactor) detach() {
	if !r.attached {
		return
	}
	r.target.removeObserver(r.id)
	r.attached = false
}

// Stop detaches the reactor and cancels any pending delivery. After Stop
// returns the callback is never invoked again. Stop is idempotent and may
// be called from inside the callback.
func (r *Reactor) Stop() {
	if r.stopped {
		return
	}
	r.stopped = true
	r.pending = false
	r.detach()
	if r.when != nil {
		r.when.removeObserver(r.id)
	}
	if r.until != nil {
		r.until.removeObserver(r.id)
	}
	delete(r.rt.reactors, r.id)
	r.rt.hooks.ReactorStopped(r.info())
}

// Active reports whether the reactor has not been stopped.
func (r *Reactor) Active() bool {
	return !r.stopped
}

// Pending reports whether a re-evaluation is scheduled.
func (r *Reactor) Pending() bool {
	return r.pending
}

// ID returns the unique identifier for this reactor.
func (r *Reactor) ID() uint64 { return r.id }

// Name returns the display name, if any.
func (r *Reactor) Name() string { return r.name }

// Target describes the observed node.
func (r *Reactor) Target() NodeInfo { return r.target.info() }

// truthy reports whether st holds the boolean true.
func truthy(st state) bool {
	if !st.resolved || st.err != nil {
		return false
	}
	b, _ := st.value.(bool)
	return b
}
