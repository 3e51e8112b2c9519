package combinators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/derivable/pkg/reactive"
)

func TestMapAndMapErr(t *testing.T) {
	rt := reactive.NewRuntime()
	n := reactive.NewAtom(4, reactive.WithRuntime(rt))

	doubled := Map(n, func(v int) int { return v * 2 })
	errOdd := errors.New("odd")
	half := MapErr(n, func(v int) (int, error) {
		if v%2 != 0 {
			return 0, errOdd
		}
		return v / 2, nil
	})

	v, err := doubled.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, v)
	assert.Same(t, rt, doubled.Runtime())

	n.Set(3)
	_, err = half.Get()
	assert.ErrorIs(t, err, errOdd)
}

func TestCombine(t *testing.T) {
	rt := reactive.NewRuntime()
	price := reactive.NewAtom(2.5, reactive.WithRuntime(rt))
	qty := reactive.NewAtom(4, reactive.WithRuntime(rt))
	tax := reactive.NewAtom(0.1, reactive.WithRuntime(rt))

	subtotal := Combine2(price, qty, func(p float64, q int) float64 { return p * float64(q) })
	total := Combine3(price, qty, tax, func(p float64, q int, t float64) float64 {
		return p * float64(q) * (1 + t)
	})

	v, err := subtotal.Get()
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	tv, err := total.Get()
	require.NoError(t, err)
	assert.InDelta(t, 11.0, tv, 1e-9)

	qty.Set(2)
	v, _ = subtotal.Get()
	assert.Equal(t, 5.0, v)
}

func TestCombinePropagatesUnresolved(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.NewUnresolvedAtom[int](reactive.WithRuntime(rt))
	b := reactive.NewAtom(1, reactive.WithRuntime(rt))
	calls := 0
	sum := Combine2(a, b, func(x, y int) int { calls++; return x + y })

	_, err := sum.Get()
	assert.ErrorIs(t, err, reactive.ErrUnresolved)
	assert.True(t, sum.State().Unresolved())
	assert.Zero(t, calls)

	a.Set(2)
	v, err := sum.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestAll(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.NewAtom("a", reactive.WithRuntime(rt))
	b := reactive.NewAtom("b", reactive.WithRuntime(rt))
	all := All([]reactive.Derivable[string]{a, b})

	v, err := all.Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	b.Unset()
	_, err = all.Get()
	assert.ErrorIs(t, err, reactive.ErrUnresolved)

	empty := All[int](nil, reactive.WithRuntime(rt))
	ev, err := empty.Get()
	require.NoError(t, err)
	assert.Empty(t, ev)
}

func TestStructWithErase(t *testing.T) {
	rt := reactive.NewRuntime()
	name := reactive.NewAtom("ada", reactive.WithRuntime(rt))
	age := reactive.NewAtom(36, reactive.WithRuntime(rt))

	profile := Struct(map[string]reactive.Derivable[any]{
		"name": Erase(name),
		"age":  Erase(age),
	})

	v, err := profile.Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ada", "age": 36}, v)

	age.Set(37)
	v, _ = profile.Get()
	assert.Equal(t, 37, v["age"])
}

func TestPluck(t *testing.T) {
	rt := reactive.NewRuntime()
	prices := reactive.NewAtom(map[string]int{"apple": 3}, reactive.WithRuntime(rt))
	apple := Pluck(prices, "apple")
	pear := Pluck(prices, "pear")

	v, err := apple.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = pear.Get()
	assert.ErrorIs(t, err, reactive.ErrUnresolved)

	prices.Set(map[string]int{"apple": 3, "pear": 5})
	v, err = pear.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestFallbackTo(t *testing.T) {
	rt := reactive.NewRuntime()
	user := reactive.NewUnresolvedAtom[string](reactive.WithRuntime(rt))
	shown := FallbackTo(user, "guest")

	v, err := shown.Get()
	require.NoError(t, err)
	assert.Equal(t, "guest", v)

	user.Set("ada")
	v, _ = shown.Get()
	assert.Equal(t, "ada", v)

	errBoom := errors.New("boom")
	failing := reactive.NewDerivation(func() (string, error) { return "", errBoom }, reactive.WithRuntime(rt))
	_, err = FallbackTo(failing, "guest").Get()
	assert.ErrorIs(t, err, errBoom)
}

func TestLogic(t *testing.T) {
	rt := reactive.NewRuntime()
	a := reactive.NewAtom(true, reactive.WithRuntime(rt))
	b := reactive.NewAtom(false, reactive.WithRuntime(rt))

	and := And(a, b)
	or := Or(a, b)
	not := Not(a)

	get := func(d *reactive.Derivation[bool]) bool {
		v, err := d.Get()
		require.NoError(t, err)
		return v
	}

	assert.False(t, get(and))
	assert.True(t, get(or))
	assert.False(t, get(not))

	b.Set(true)
	assert.True(t, get(and))

	a.Set(false)
	assert.False(t, get(and))
	assert.True(t, get(not))
	assert.Len(t, and.Dependencies(), 1, "And stops reading at the first false source")
}

func TestLens(t *testing.T) {
	type form struct {
		Name  string
		Email string
	}
	rt := reactive.NewRuntime()
	src := reactive.NewAtom(form{Name: "ada"}, reactive.WithRuntime(rt))
	email := NewLens(src,
		func(f form) string { return f.Email },
		func(f form, v string) form { f.Email = v; return f },
	)

	var got []string
	r := reactive.React[string](email, func(v string, err error) { got = append(got, v) })
	defer r.Stop()

	email.Set("ada@example.com")
	rt.Flush()

	f, _ := src.Get()
	assert.Equal(t, form{Name: "ada", Email: "ada@example.com"}, f)
	assert.Equal(t, []string{"", "ada@example.com"}, got)

	email.Update(func(s string) string { return s + ".uk" })
	rt.Flush()
	v, _ := email.Get()
	assert.Equal(t, "ada@example.com.uk", v)
	assert.Same(t, src, email.Source())

	// Writing another field does not notify the lens reactor.
	src.Update(func(f form) form { f.Name = "grace"; return f })
	rt.Flush()
	assert.Len(t, got, 3)
}
