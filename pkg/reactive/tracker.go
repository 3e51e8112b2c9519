package reactive

// dependency is one edge captured during an evaluation: the node that was
// read and its version at the time of the read.
type dependency struct {
	node    node
	version uint64
}

// frame is one level of the evaluation stack.
// A frame with a nil derivation suspends tracking (see Untracked).
type frame struct {
	d    *derivation
	deps []dependency
	seen map[uint64]struct{}
}

// tracker records which derivation is currently being evaluated and which
// nodes it reads. Nested evaluations push nested frames.
type tracker struct {
	stack []*frame
}

// push starts a new evaluation frame for d.
func (t *tracker) push(d *derivation) *frame {
	f := &frame{d: d}
	if d != nil {
		f.seen = make(map[uint64]struct{})
	}
	t.stack = append(t.stack, f)
	return f
}

// pop removes f and every frame above it. Frames above f only exist when a
// compute function panicked through them.
func (t *tracker) pop(f *frame) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i] == f {
			for j := i; j < len(t.stack); j++ {
				t.stack[j] = nil
			}
			t.stack = t.stack[:i]
			return
		}
	}
}

// current returns the innermost frame, or nil.
func (t *tracker) current() *frame {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// depth returns the number of frames on the stack.
func (t *tracker) depth() int {
	return len(t.stack)
}

// recordObservation registers n as a dependency of the derivation under
// evaluation, if any. It is the only place graph edges are created.
// Must be called after n has been refreshed so the captured version matches
// the state the caller is about to see.
func (t *tracker) recordObservation(n node) {
	f := t.current()
	if f == nil || f.d == nil {
		return
	}
	id := n.nodeID()
	if id == f.d.id {
		return
	}
	if _, ok := f.seen[id]; ok {
		return
	}
	f.seen[id] = struct{}{}
	f.deps = append(f.deps, dependency{node: n, version: n.currentVersion()})
	n.addObserver(f.d.ref)
}
