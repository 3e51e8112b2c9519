// Package reactivetest provides testing helpers for code built on the
// reactive engine.
//
// # Quick Start
//
//	func TestTotal(t *testing.T) {
//	    rt := reactivetest.NewRuntime(t)
//	    price := reactive.NewAtom(2, reactive.WithRuntime(rt))
//	    total := reactive.Derive(price, func(p int) int { return p * 3 })
//
//	    rec := reactivetest.Record(t, total)
//	    price.Set(4)
//	    rt.Flush()
//
//	    rec.ExpectValues(6, 12)
//	}
//
// # Runtime
//
// NewRuntime returns a runtime with a manual queue, so deliveries happen
// only when the test calls Flush. Engine debug logs go to t.Log, and the
// test fails if it ends with a transaction still open.
//
// # Assertions
//
//	reactivetest.ExpectValue(t, total, 12)
//	reactivetest.ExpectUnresolved(t, pending)
//	reactivetest.ExpectError(t, checked, ErrInvalid)
package reactivetest
