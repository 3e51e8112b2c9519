package inspect

import (
	"encoding/json"
	"sort"

	"github.com/vango-dev/derivable/internal/errors"
	"github.com/vango-dev/derivable/pkg/reactive"
)

// NodeView is the JSON form of a registered node.
type NodeView struct {
	Name         string          `json:"name"`
	ID           uint64          `json:"id"`
	Kind         string          `json:"kind"`
	Version      uint64          `json:"version"`
	Observers    int             `json:"observers"`
	State        string          `json:"state"`
	Value        any             `json:"value,omitempty"`
	Error        string          `json:"error,omitempty"`
	Dependencies []DependencyRef `json:"dependencies,omitempty"`
}

// DependencyRef names one dependency of a derivation. Name is set when the
// dependency is registered.
type DependencyRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`
}

// Delivery is one change of a watched node.
type Delivery struct {
	Node  string `json:"node"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// entry is one registered node with type-erased accessors.
type entry struct {
	name  string
	id    uint64
	kind  reactive.Kind
	view  func() NodeView
	write func(raw json.RawMessage) error
	deps  func() []reactive.NodeInfo
	watch func(notify func(Delivery)) *reactive.Reactor
}

// Registry names nodes for the inspector. It is not safe for concurrent
// use; the Server only touches it from the loop goroutine.
type Registry struct {
	entries map[string]*entry
	byID    map[uint64]string

	notify   func(Delivery)
	reactors map[string]*reactive.Reactor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*entry),
		byID:     make(map[uint64]string),
		reactors: make(map[string]*reactive.Reactor),
	}
}

// RegisterAtom registers a writable atom under name. Values written
// through the inspector are decoded from JSON into T.
func RegisterAtom[T any](r *Registry, name string, a *reactive.Atom[T]) error {
	return r.add(&entry{
		name: name,
		id:   a.ID(),
		kind: reactive.KindAtom,
		view: func() NodeView { return viewOf[T](name, a) },
		write: func(raw json.RawMessage) error {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return errors.New("R212").
					WithDetail("Cannot decode the value for " + name + ".").
					Wrap(err)
			}
			a.Set(v)
			return nil
		},
		watch: watcher[T](name, a),
	})
}

// RegisterDerivation registers a read-only node under name.
func RegisterDerivation[T any](r *Registry, name string, d *reactive.Derivation[T]) error {
	return r.add(&entry{
		name:  name,
		id:    d.ID(),
		kind:  reactive.KindDerivation,
		view:  func() NodeView { return viewOf[T](name, d) },
		deps:  d.Dependencies,
		watch: watcher[T](name, d),
	})
}

func (r *Registry) add(e *entry) error {
	if _, ok := r.entries[e.name]; ok {
		return errors.New("R214").WithDetail("A node named " + e.name + " is already registered.")
	}
	r.entries[e.name] = e
	r.byID[e.id] = e.name
	if r.notify != nil {
		r.reactors[e.name] = e.watch(r.notify)
	}
	return nil
}

// Watch starts a reactor on every registered node, current and future,
// that passes deliveries to notify. The first delivery of each node is
// skipped; clients read the current state from the graph endpoint.
func (r *Registry) Watch(notify func(Delivery)) {
	r.notify = notify
	for name, e := range r.entries {
		if _, ok := r.reactors[name]; !ok {
			r.reactors[name] = e.watch(notify)
		}
	}
}

// Close stops every watch reactor.
func (r *Registry) Close() {
	for name, rc := range r.reactors {
		rc.Stop()
		delete(r.reactors, name)
	}
	r.notify = nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.entries)
}

// View returns the current view of one node.
func (r *Registry) View(name string) (NodeView, error) {
	e, ok := r.entries[name]
	if !ok {
		return NodeView{}, notFound(name)
	}
	return r.view(e), nil
}

// Graph returns the view of every registered node, sorted by name.
func (r *Registry) Graph() []NodeView {
	out := make([]NodeView, 0, len(r.entries))
	for _, name := range r.Names() {
		out = append(out, r.view(r.entries[name]))
	}
	return out
}

// Atoms returns the views of the registered atoms.
func (r *Registry) Atoms() []NodeView {
	var out []NodeView
	for _, name := range r.Names() {
		if e := r.entries[name]; e.kind == reactive.KindAtom {
			out = append(out, r.view(e))
		}
	}
	return out
}

// Set writes a JSON value into the atom registered under name.
func (r *Registry) Set(name string, raw json.RawMessage) error {
	e, ok := r.entries[name]
	if !ok {
		return notFound(name)
	}
	if e.write == nil {
		return errors.New("R211").WithDetail(name + " is a " + e.kind.String() + "; only atoms can be written.")
	}
	return e.write(raw)
}

func (r *Registry) view(e *entry) NodeView {
	v := e.view()
	if e.deps == nil {
		return v
	}
	for _, info := range e.deps() {
		v.Dependencies = append(v.Dependencies, DependencyRef{
			ID:   info.ID,
			Name: r.byID[info.ID],
			Kind: info.Kind.String(),
		})
	}
	return v
}

func notFound(name string) error {
	return errors.New("R210").WithDetail("No node named " + name + " is registered.")
}

// viewOf reads d without tracking and describes its state.
func viewOf[T any](name string, d reactive.Derivable[T]) NodeView {
	info := d.Info()
	st := d.State()
	v := NodeView{
		Name:      name,
		ID:        info.ID,
		Kind:      info.Kind.String(),
		Version:   d.Version(),
		Observers: d.Observers(),
	}
	switch {
	case st.Unresolved():
		v.State = "unresolved"
	case st.Failed():
		v.State = "error"
		v.Error = st.Err.Error()
	default:
		v.State = "value"
		v.Value = st.Value
	}
	return v
}

// watcher returns a function that starts a reactor on d forwarding to
// notify.
func watcher[T any](name string, d reactive.Derivable[T]) func(func(Delivery)) *reactive.Reactor {
	return func(notify func(Delivery)) *reactive.Reactor {
		return reactive.React(d, func(v T, err error) {
			msg := Delivery{Node: name, Value: v}
			if err != nil {
				msg.Value = nil
				msg.Error = err.Error()
			}
			notify(msg)
		}, reactive.SkipFirst(), reactive.ReactorName("inspect:"+name))
	}
}

// SeedAtoms registers one atom per seed entry. Values keep the dynamic
// type they were decoded with.
func SeedAtoms(r *Registry, rt *reactive.Runtime, seed map[string]any) error {
	names := make([]string, 0, len(seed))
	for name := range seed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := reactive.NewAtom[any](seed[name], reactive.WithRuntime(rt), reactive.WithName(name))
		if err := RegisterAtom(r, name, a); err != nil {
			return err
		}
	}
	return nil
}
