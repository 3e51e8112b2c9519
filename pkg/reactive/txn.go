package reactive

// snapshot is the state of an atom when it was first written in a frame.
type snapshot struct {
	atom    *atom
	st      state
	version uint64
}

// derivationSnapshot is the state of a derivation when it was first
// refreshed in a frame.
type derivationSnapshot struct {
	d        *derivation
	st       state
	version  uint64
	deps     []dependency
	computed bool
	stale    bool
	dirty    bool
}

// txnFrame records what one transaction frame touched.
type txnFrame struct {
	// entries are the mutated atoms in order of first mutation.
	entries []snapshot
	index   map[uint64]int

	// touched are the derivations refreshed inside the frame, as they were
	// before their first refresh in it.
	touched      []derivationSnapshot
	touchedIndex map[uint64]struct{}
}

func newTxnFrame() *txnFrame {
	return &txnFrame{
		index:        make(map[uint64]int),
		touchedIndex: make(map[uint64]struct{}),
	}
}

// record snapshots a before its first mutation in this frame.
func (f *txnFrame) record(a *atom) {
	if _, ok := f.index[a.id]; ok {
		return
	}
	f.index[a.id] = len(f.entries)
	f.entries = append(f.entries, snapshot{atom: a, st: a.st, version: a.version})
}

// touch snapshots d before its first refresh in this frame.
func (f *txnFrame) touch(d *derivation) {
	if _, ok := f.touchedIndex[d.id]; ok {
		return
	}
	f.touchedIndex[d.id] = struct{}{}
	f.touched = append(f.touched, derivationSnapshot{
		d:        d,
		st:       d.st,
		version:  d.version,
		deps:     d.deps,
		computed: d.computed,
		stale:    d.stale,
		dirty:    d.dirty,
	})
}

// mergeInto folds a committed nested frame into its parent. The parent
// keeps its own snapshot for nodes it had already recorded.
func (f *txnFrame) mergeInto(parent *txnFrame) {
	for _, e := range f.entries {
		if _, ok := parent.index[e.atom.id]; ok {
			continue
		}
		parent.index[e.atom.id] = len(parent.entries)
		parent.entries = append(parent.entries, e)
	}
	for _, s := range f.touched {
		if _, ok := parent.touchedIndex[s.d.id]; ok {
			continue
		}
		parent.touchedIndex[s.d.id] = struct{}{}
		parent.touched = append(parent.touched, s)
	}
}

// restoreDerivations puts every touched derivation back in the state it
// had at frame entry, edges included. Nobody is notified: the restored
// state is the one observers last heard about.
func (f *txnFrame) restoreDerivations() {
	for i := len(f.touched) - 1; i >= 0; i-- {
		f.touched[i].d.restore(f.touched[i])
	}
}

// Txn is one frame of the transaction stack. Frames nest: an inner commit
// merges into the outer frame, and observers are notified only when the
// outermost frame commits.
type Txn struct {
	rt    *Runtime
	frame *txnFrame
	name  string
	done  bool
}

// Begin pushes a new transaction frame. The caller must end it with
// Commit or Abort. Prefer Transact, which does so even on panic.
func (rt *Runtime) Begin() *Txn {
	return rt.BeginNamed("")
}

// BeginNamed is Begin with a name used in logs and instrumentation.
func (rt *Runtime) BeginNamed(name string) *Txn {
	tx := &Txn{rt: rt, frame: newTxnFrame(), name: name}
	rt.txns = append(rt.txns, tx)
	depth := len(rt.txns)
	rt.hooks.TxnBegin(depth, name)
	if rt.debug {
		rt.logger.Debug("reactive: transaction begin", "name", name, "depth", depth)
	}
	return tx
}

// InTxn reports whether a transaction is active.
func (rt *Runtime) InTxn() bool {
	return len(rt.txns) > 0
}

// TxnDepth returns the number of active transaction frames.
func (rt *Runtime) TxnDepth() int {
	return len(rt.txns)
}

// topTxn returns the innermost active transaction, or nil.
func (rt *Runtime) topTxn() *Txn {
	if len(rt.txns) == 0 {
		return nil
	}
	return rt.txns[len(rt.txns)-1]
}

// pop removes tx from the top of the stack.
func (rt *Runtime) pop(tx *Txn) error {
	if tx.done || rt.topTxn() != tx {
		return ErrTxnNotActive
	}
	rt.txns[len(rt.txns)-1] = nil
	rt.txns = rt.txns[:len(rt.txns)-1]
	tx.done = true
	return nil
}

// Name returns the transaction name.
func (tx *Txn) Name() string {
	return tx.name
}

// Active reports whether the transaction has not ended yet.
func (tx *Txn) Active() bool {
	return !tx.done
}

// Commit ends the transaction.
//
// A nested commit merges the frame into its parent. The outermost commit
// publishes the changes: every mutated atom notifies its observers, in the
// order the atoms were first written. An atom written back to its original
// value gets its original version back and notifies nobody.
func (tx *Txn) Commit() error {
	rt := tx.rt
	depth := len(rt.txns)
	if err := rt.pop(tx); err != nil {
		return err
	}
	f := tx.frame
	defer tx.ended(depth, TxnCommitted, len(f.entries))

	if parent := rt.topTxn(); parent != nil {
		f.mergeInto(parent.frame)
		return nil
	}

	// Derivations computed inside the frame may have captured versions of
	// atoms that are restored below, so they are rolled back with them.
	changed := make([]*atom, 0, len(f.entries))
	restored := false
	for _, e := range f.entries {
		a := e.atom
		if a.st.equal(e.st, a.equals) {
			a.st = e.st
			a.version = e.version
			restored = true
			continue
		}
		changed = append(changed, a)
	}
	if restored {
		f.restoreDerivations()
	}
	for _, a := range changed {
		a.obs.notify(a.id)
	}
	return nil
}

// Abort ends the transaction and restores every atom written in it, and
// every derivation refreshed in it, to its state and version at frame
// entry. Nobody is notified.
func (tx *Txn) Abort() error {
	rt := tx.rt
	depth := len(rt.txns)
	if err := rt.pop(tx); err != nil {
		return err
	}
	f := tx.frame
	defer tx.ended(depth, TxnAborted, len(f.entries))

	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		e.atom.st = e.st
		e.atom.version = e.version
	}
	f.restoreDerivations()
	return nil
}

// ended reports the end of a frame and, after the outermost one, releases
// reactors that were held back while the transaction was open.
func (tx *Txn) ended(depth int, outcome TxnOutcome, atoms int) {
	rt := tx.rt
	rt.hooks.TxnEnd(depth, tx.name, outcome, atoms)
	if rt.debug {
		rt.logger.Debug("reactive: transaction end",
			"name", tx.name, "depth", depth, "outcome", outcome.String(), "atoms", atoms)
	}
	if rt.InTxn() {
		return
	}
	waiting := rt.waiting
	rt.waiting = nil
	for _, r := range waiting {
		r.schedule()
	}
}

// abortThrough aborts every frame from the top of the stack down to and
// including tx. Used when a panic left inner frames open.
func (rt *Runtime) abortThrough(tx *Txn) {
	if tx.done {
		return
	}
	for len(rt.txns) > 0 {
		top := rt.topTxn()
		_ = top.Abort()
		if top == tx {
			return
		}
	}
}

// Transact runs fn in a new transaction. If fn returns nil the transaction
// commits; if fn returns an error or panics, every atom written in it is
// rolled back before the error is returned or the panic continues.
//
// Example:
//
//	err := rt.Transact(func() error {
//	    from.Update(func(n int) int { return n - amount })
//	    to.Update(func(n int) int { return n + amount })
//	    if v, _ := from.Get(); v < 0 {
//	        return ErrInsufficientFunds
//	    }
//	    return nil
//	})
func (rt *Runtime) Transact(fn func() error) error {
	return rt.TransactNamed("", fn)
}

// TransactNamed is Transact with a name used in logs and instrumentation.
func (rt *Runtime) TransactNamed(name string, fn func() error) error {
	tx := rt.BeginNamed(name)
	defer func() {
		if r := recover(); r != nil {
			rt.abortThrough(tx)
			panic(r)
		}
	}()
	if err := fn(); err != nil {
		rt.abortThrough(tx)
		return err
	}
	if err := tx.Commit(); err != nil {
		// fn left inner frames open.
		rt.abortThrough(tx)
		return err
	}
	return nil
}

// Atomically runs fn inside the active transaction if there is one and in
// a new transaction otherwise. Errors from fn are returned unchanged; when
// joining an outer transaction, rolling back is left to its owner.
func (rt *Runtime) Atomically(fn func() error) error {
	if rt.InTxn() {
		return fn()
	}
	return rt.Transact(fn)
}
