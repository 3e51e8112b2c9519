package reactive

import "time"

// TxnOutcome is how a transaction frame ended.
type TxnOutcome uint8

const (
	TxnCommitted TxnOutcome = iota + 1
	TxnAborted
)

// String returns a human-readable name for the outcome.
func (o TxnOutcome) String() string {
	switch o {
	case TxnCommitted:
		return "committed"
	case TxnAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Hooks receives engine events. Implementations must be cheap and must not
// read or write nodes of the runtime that calls them.
//
// Embed NopHooks to implement only the events you need.
type Hooks interface {
	// Recomputed is called after a derivation ran its compute function.
	// changed reports whether the result differed from the cached one and
	// err is the compute error, if any.
	Recomputed(info NodeInfo, took time.Duration, changed bool, err error)

	// ReactorDelivered is called after a reactor invoked its callback.
	ReactorDelivered(info NodeInfo, err error)

	// ReactorStarted and ReactorStopped track the active reactor set.
	ReactorStarted(info NodeInfo)
	ReactorStopped(info NodeInfo)

	// TxnBegin is called when a transaction frame is pushed. depth is 1
	// for the outermost frame.
	TxnBegin(depth int, name string)

	// TxnEnd is called when a transaction frame is popped. atoms is the
	// number of atoms mutated in the frame.
	TxnEnd(depth int, name string, outcome TxnOutcome, atoms int)

	// CycleDetected is called when a derivation re-enters itself.
	CycleDetected(info NodeInfo)

	// AutoCacheSwept is called after the end-of-tick sweep released n
	// unobserved autoCache derivations.
	AutoCacheSwept(n int)
}

// NopHooks implements Hooks with no-ops.
type NopHooks struct{}

func (NopHooks) Recomputed(NodeInfo, time.Duration, bool, error) {}
func (NopHooks) ReactorDelivered(NodeInfo, error)                {}
func (NopHooks) ReactorStarted(NodeInfo)                         {}
func (NopHooks) ReactorStopped(NodeInfo)                         {}
func (NopHooks) TxnBegin(int, string)                            {}
func (NopHooks) TxnEnd(int, string, TxnOutcome, int)             {}
func (NopHooks) CycleDetected(NodeInfo)                          {}
func (NopHooks) AutoCacheSwept(int)                              {}

// multiHooks fans events out to several Hooks.
type multiHooks []Hooks

func (m multiHooks) Recomputed(info NodeInfo, took time.Duration, changed bool, err error) {
	for _, h := range m {
		h.Recomputed(info, took, changed, err)
	}
}

func (m multiHooks) ReactorDelivered(info NodeInfo, err error) {
	for _, h := range m {
		h.ReactorDelivered(info, err)
	}
}

func (m multiHooks) ReactorStarted(info NodeInfo) {
	for _, h := range m {
		h.ReactorStarted(info)
	}
}

func (m multiHooks) ReactorStopped(info NodeInfo) {
	for _, h := range m {
		h.ReactorStopped(info)
	}
}

func (m multiHooks) TxnBegin(depth int, name string) {
	for _, h := range m {
		h.TxnBegin(depth, name)
	}
}

func (m multiHooks) TxnEnd(depth int, name string, outcome TxnOutcome, atoms int) {
	for _, h := range m {
		h.TxnEnd(depth, name, outcome, atoms)
	}
}

func (m multiHooks) CycleDetected(info NodeInfo) {
	for _, h := range m {
		h.CycleDetected(info)
	}
}

func (m multiHooks) AutoCacheSwept(n int) {
	for _, h := range m {
		h.AutoCacheSwept(n)
	}
}
