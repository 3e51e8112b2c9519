package reactive

import (
	"log/slog"
	"sync"
)

// Runtime is the explicit context shared by a graph of nodes: the
// evaluation stack, the transaction stack, the scheduler used for reactors
// and autoCache sweeps, the active reactor registry and instrumentation.
//
// A Runtime is not safe for concurrent use. Use Loop to drive one from
// several goroutines.
type Runtime struct {
	tracker tracker

	// txns is the transaction stack, innermost last.
	txns []*Txn

	// waiting are reactors whose re-evaluation arrived while a transaction
	// was open. They are rescheduled when the outermost frame ends.
	waiting []*Reactor

	scheduler Scheduler

	// reactors are the active reactors. They are the owning roots of the
	// graph: everything an active reactor depends on stays reachable.
	reactors map[uint64]*Reactor

	// grace holds unobserved autoCache derivations read during the current
	// unit of work.
	grace          []*derivation
	graceSet       map[uint64]struct{}
	sweepScheduled bool

	hooks  Hooks
	logger *slog.Logger
	debug  bool
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithScheduler sets the scheduler used for deferred work.
// Default: a new Queue, drained by Runtime.Flush.
func WithScheduler(s Scheduler) RuntimeOption {
	return func(rt *Runtime) {
		rt.scheduler = s
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithHooks adds instrumentation hooks. May be given several times.
func WithHooks(hooks ...Hooks) RuntimeOption {
	return func(rt *Runtime) {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if m, ok := rt.hooks.(multiHooks); ok {
				rt.hooks = append(m, h)
			} else {
				rt.hooks = multiHooks{h}
			}
		}
	}
}

// WithDebug enables debug mode (see Runtime.SetDebug).
func WithDebug(enabled bool) RuntimeOption {
	return func(rt *Runtime) {
		rt.debug = enabled
	}
}

// NewRuntime creates a Runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		reactors: make(map[uint64]*Reactor),
		graceSet: make(map[uint64]struct{}),
		hooks:    NopHooks{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.scheduler == nil {
		rt.scheduler = NewQueue()
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	return rt
}

var defaultRuntime = sync.OnceValue(func() *Runtime {
	return NewRuntime()
})

// Default returns the process-wide runtime used by constructors that are
// not given WithRuntime.
func Default() *Runtime {
	return defaultRuntime()
}

// Debug reports whether debug mode is enabled.
func (rt *Runtime) Debug() bool {
	return rt.debug
}

// SetDebug toggles debug mode. When enabled, derivations and reactors
// created afterwards capture their creation site, and errors they surface
// are wrapped in *DebugError carrying it. Debug mode never changes what is
// computed or when.
func (rt *Runtime) SetDebug(enabled bool) {
	rt.debug = enabled
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Scheduler returns the runtime's scheduler.
func (rt *Runtime) Scheduler() Scheduler {
	return rt.scheduler
}

// Flush ends the current unit of work by draining the scheduler, if it
// supports draining. Returns the number of callbacks run.
func (rt *Runtime) Flush() int {
	if f, ok := rt.scheduler.(Flusher); ok {
		return f.Flush()
	}
	return 0
}

// Tracking reports whether a derivation is currently being evaluated, i.e.
// whether a read right now would create a dependency edge.
func (rt *Runtime) Tracking() bool {
	f := rt.tracker.current()
	return f != nil && f.d != nil
}

// Untracked runs fn without recording any reads as dependencies of the
// derivation currently being evaluated.
func (rt *Runtime) Untracked(fn func()) {
	f := rt.tracker.push(nil)
	defer rt.tracker.pop(f)
	fn()
}

// ActiveReactors returns the number of running reactors.
func (rt *Runtime) ActiveReactors() int {
	return len(rt.reactors)
}

// Untracked runs fn on the default runtime without dependency tracking.
func Untracked(fn func()) {
	Default().Untracked(fn)
}

// Option configures a node at construction.
type Option func(*nodeConfig)

type nodeConfig struct {
	rt   *Runtime
	name string
}

// WithRuntime binds the node to rt instead of the default runtime.
// Nodes only track reads of nodes bound to the same runtime.
func WithRuntime(rt *Runtime) Option {
	return func(c *nodeConfig) {
		c.rt = rt
	}
}

// WithName sets a display name used in errors, logs and introspection.
func WithName(name string) Option {
	return func(c *nodeConfig) {
		c.name = name
	}
}

func applyOptions(opts []Option) nodeConfig {
	var c nodeConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.rt == nil {
		c.rt = Default()
	}
	return c
}
