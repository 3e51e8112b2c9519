// Package demo builds the sample shopping cart graph used by the
// derivable command.
package demo

import (
	"errors"
	"fmt"
	"io"

	"github.com/vango-dev/derivable/internal/inspect"
	"github.com/vango-dev/derivable/pkg/combinators"
	"github.com/vango-dev/derivable/pkg/reactive"
)

// ErrNegativeTotal is the error the total derivation fails with when the
// discount exceeds the subtotal.
var ErrNegativeTotal = errors.New("total below zero")

// Cart is a small graph: three atoms, a subtotal, a total that can fail,
// a label, and an autoCache tax estimate.
type Cart struct {
	rt *reactive.Runtime

	Price    *reactive.Atom[float64]
	Qty      *reactive.Atom[int]
	Discount *reactive.Atom[float64]
	Coupon   *reactive.Atom[string]

	Subtotal *reactive.Derivation[float64]
	Total    *reactive.Derivation[float64]
	Label    *reactive.Derivation[string]
	Tax      *reactive.Derivation[float64]
}

// NewCart builds the cart on rt. The coupon starts unresolved.
func NewCart(rt *reactive.Runtime) *Cart {
	on := reactive.WithRuntime(rt)
	c := &Cart{
		rt:       rt,
		Price:    reactive.NewAtom(2.5, on, reactive.WithName("price")),
		Qty:      reactive.NewAtom(4, on, reactive.WithName("qty")),
		Discount: reactive.NewAtom(0.0, on, reactive.WithName("discount")),
		Coupon:   reactive.NewUnresolvedAtom[string](on, reactive.WithName("coupon")),
	}

	c.Subtotal = combinators.Combine2(c.Price, c.Qty, func(p float64, q int) float64 {
		return p * float64(q)
	}, reactive.WithName("subtotal"))

	c.Total = reactive.NewDerivation(func() (float64, error) {
		sub, err := c.Subtotal.Get()
		if err != nil {
			return 0, err
		}
		d, err := c.Discount.Get()
		if err != nil {
			return 0, err
		}
		if d > sub {
			return 0, ErrNegativeTotal
		}
		return sub - d, nil
	}, on, reactive.WithName("total"))

	coupon := combinators.FallbackTo[string](c.Coupon, "none")
	c.Label = combinators.Combine2(c.Total, coupon, func(t float64, code string) string {
		return fmt.Sprintf("$%.2f (coupon: %s)", t, code)
	}, reactive.WithName("label"))

	c.Tax = reactive.Derive(c.Total, func(t float64) float64 {
		return t * 0.2
	}, reactive.WithName("tax")).AutoCache()

	return c
}

// Runtime returns the runtime the cart lives on.
func (c *Cart) Runtime() *reactive.Runtime {
	return c.rt
}

// Register adds every node of the cart to reg.
func (c *Cart) Register(reg *inspect.Registry) error {
	errs := []error{
		inspect.RegisterAtom(reg, "price", c.Price),
		inspect.RegisterAtom(reg, "qty", c.Qty),
		inspect.RegisterAtom(reg, "discount", c.Discount),
		inspect.RegisterAtom(reg, "coupon", c.Coupon),
		inspect.RegisterDerivation(reg, "subtotal", c.Subtotal),
		inspect.RegisterDerivation(reg, "total", c.Total),
		inspect.RegisterDerivation(reg, "label", c.Label),
		inspect.RegisterDerivation(reg, "tax", c.Tax),
	}
	return errors.Join(errs...)
}

// Run plays the demo scenario on c and writes a line for every delivery
// and step to w.
func Run(w io.Writer, c *Cart) error {
	rt := c.rt
	step := func(format string, args ...any) {
		fmt.Fprintf(w, "\n> "+format+"\n", args...)
	}

	step("watching label")
	r := c.Label.React(func(v string, err error) {
		if err != nil {
			fmt.Fprintf(w, "  label: error: %v\n", err)
			return
		}
		fmt.Fprintf(w, "  label: %s\n", v)
	}, reactive.ReactorName("printer"))
	defer r.Stop()

	step("set qty to 10")
	c.Qty.Set(10)
	rt.Flush()

	step("apply coupon SAVE5 and a 5.00 discount in one transaction")
	err := rt.TransactNamed("coupon", func() error {
		c.Coupon.Set("SAVE5")
		c.Discount.Set(5)
		return nil
	})
	if err != nil {
		return err
	}
	rt.Flush()

	step("try a 100.00 discount, rolled back because the total would go negative")
	err = rt.TransactNamed("big-discount", func() error {
		c.Discount.Set(100)
		if _, err := c.Total.Get(); err != nil {
			return err
		}
		return nil
	})
	fmt.Fprintf(w, "  transaction: %v\n", err)
	rt.Flush()

	step("set the discount past the total without a transaction")
	c.Discount.Set(30)
	rt.Flush()
	c.Discount.Set(0)
	rt.Flush()

	step("read the autoCache tax twice in one tick, then after the sweep")
	for i := 0; i < 2; i++ {
		v, _ := c.Tax.Get()
		fmt.Fprintf(w, "  tax: %.2f (total observers: %d)\n", v, c.Total.Observers())
	}
	rt.Flush()
	fmt.Fprintf(w, "  after the tick: total observers: %d\n", c.Total.Observers())
	return nil
}
