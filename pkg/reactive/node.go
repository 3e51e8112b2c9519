package reactive

// Kind identifies the type of a graph participant.
type Kind uint8

const (
	KindAtom Kind = iota + 1
	KindConstant
	KindDerivation
	KindReactor
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindConstant:
		return "constant"
	case KindDerivation:
		return "derivation"
	case KindReactor:
		return "reactor"
	default:
		return "unknown"
	}
}

// NodeInfo describes a node for introspection and instrumentation.
type NodeInfo struct {
	ID      uint64
	Name    string
	Kind    Kind
	Version uint64
}

// node is the type-erased contract every value holder implements.
type node interface {
	nodeID() uint64
	info() NodeInfo
	runtime() *Runtime

	// currentVersion returns the version without refreshing.
	currentVersion() uint64

	// refresh brings the node up to date without recording a dependency.
	refresh()

	// current refreshes the node and returns its state.
	current() state

	// equalFunc is the value equality used by the node.
	equalFunc() func(x, y any) bool

	addObserver(ref observerRef)
	removeObserver(id uint64)
	observerCount() int
}

// observer is anything that can be told a dependency changed.
// Implemented by derivations and reactors.
type observer interface {
	nodeID() uint64

	// handleChange notifies the observer that the node with ID from may
	// have a new state.
	handleChange(from uint64)
}

// observerRef is a non-owning edge from a node to one of its observers.
// get returns nil once the observer has been collected.
type observerRef struct {
	id  uint64
	get func() observer
}

// observable holds the weak back-edges of a node.
type observable struct {
	refs []observerRef
}

// add registers an observer. Deduplicates by ID.
func (o *observable) add(ref observerRef) {
	for _, existing := range o.refs {
		if existing.id == ref.id {
			return
		}
	}
	o.refs = append(o.refs, ref)
}

// remove drops the observer with the given ID, if present.
func (o *observable) remove(id uint64) {
	for i, existing := range o.refs {
		if existing.id == id {
			o.refs = append(o.refs[:i], o.refs[i+1:]...)
			return
		}
	}
}

// live prunes collected observers and returns a snapshot of the rest.
// The snapshot lets observers unsubscribe while being notified.
func (o *observable) live() []observer {
	if len(o.refs) == 0 {
		return nil
	}
	out := make([]observer, 0, len(o.refs))
	kept := o.refs[:0]
	for _, ref := range o.refs {
		if obs := ref.get(); obs != nil {
			kept = append(kept, ref)
			out = append(out, obs)
		}
	}
	for i := len(kept); i < len(o.refs); i++ {
		o.refs[i] = observerRef{}
	}
	o.refs = kept
	return out
}

// count returns the number of live observers.
func (o *observable) count() int {
	return len(o.live())
}

// notify forwards a change from the node with ID from to every live
// observer.
func (o *observable) notify(from uint64) {
	for _, obs := range o.live() {
		obs.handleChange(from)
	}
}
