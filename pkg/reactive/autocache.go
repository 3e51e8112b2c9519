package reactive

// AutoCache marks the derivation as tick-scoped and returns it.
//
// An autoCache derivation read while nobody observes it keeps its cached
// result only until the end of the current unit of work. At that point a
// sweep scheduled on the runtime's scheduler detaches it from its
// dependencies and drops the cache, so the next read recomputes. A
// derivation that gained an observer by then (a reactor, or a derivation
// that read it) is left alone and caches as usual.
func (d *Derivation[T]) AutoCache() *Derivation[T] {
	d.d.autoCache = true
	return d
}

// AutoCached reports whether AutoCache was called on the derivation.
func (d *Derivation[T]) AutoCached() bool {
	return d.d.autoCache
}

// touchAutoCache grants an unobserved autoCache derivation a grace period
// lasting until the end of the unit of work.
func (d *derivation) touchAutoCache() {
	if !d.autoCache || d.obs.count() > 0 {
		return
	}
	d.rt.holdForTick(d)
}

// holdForTick adds d to the grace set and makes sure one sweep is
// scheduled.
func (rt *Runtime) holdForTick(d *derivation) {
	if _, ok := rt.graceSet[d.id]; ok {
		return
	}
	rt.graceSet[d.id] = struct{}{}
	rt.grace = append(rt.grace, d)
	if rt.sweepScheduled {
		return
	}
	rt.sweepScheduled = true
	rt.scheduler.Schedule(rt.sweepAutoCache)
}

// sweepAutoCache ends the grace period of every derivation held during the
// unit of work. Members that are still unobserved are disconnected.
func (rt *Runtime) sweepAutoCache() {
	held := rt.grace
	rt.grace = nil
	rt.graceSet = make(map[uint64]struct{})
	rt.sweepScheduled = false

	released := 0
	for _, d := range held {
		if d.computing || d.obs.count() > 0 {
			continue
		}
		d.disconnect()
		released++
	}
	rt.hooks.AutoCacheSwept(released)
	if released > 0 && rt.debug {
		rt.logger.Debug("reactive: autocache sweep", "held", len(held), "released", released)
	}
}

// disconnect detaches d from its dependencies and forgets the cached
// result. The next read recomputes from scratch.
func (d *derivation) disconnect() {
	for _, dep := range d.deps {
		dep.node.removeObserver(d.id)
	}
	d.deps = nil
	d.st = state{}
	d.computed = false
	d.stale = false
	d.dirty = false
}
