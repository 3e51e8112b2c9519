// Package combinators builds common derivation shapes on top of the
// reactive engine.
//
// Every combinator returns an ordinary *reactive.Derivation bound to the
// runtime of its first source, so the results memoize, propagate errors
// and unresolved states, and can be combined further.
//
//	subtotal := combinators.Combine2(price, qty, func(p float64, q int) float64 {
//	    return p * float64(q)
//	})
//	label := combinators.Map(subtotal, func(v float64) string {
//	    return fmt.Sprintf("$%.2f", v)
//	})
package combinators

import (
	"github.com/vango-dev/derivable/pkg/reactive"
)

// Map is reactive.Derive.
func Map[T, U any](src reactive.Derivable[T], fn func(T) U, opts ...reactive.Option) *reactive.Derivation[U] {
	return reactive.Derive(src, fn, opts...)
}

// MapErr is reactive.DeriveErr.
func MapErr[T, U any](src reactive.Derivable[T], fn func(T) (U, error), opts ...reactive.Option) *reactive.Derivation[U] {
	return reactive.DeriveErr(src, fn, opts...)
}

// Combine2 derives a value from two sources. The first error or unresolved
// source, in argument order, short-circuits fn.
func Combine2[A, B, R any](a reactive.Derivable[A], b reactive.Derivable[B], fn func(A, B) R, opts ...reactive.Option) *reactive.Derivation[R] {
	return reactive.NewDerivation(func() (R, error) {
		var zero R
		av, err := a.Get()
		if err != nil {
			return zero, err
		}
		bv, err := b.Get()
		if err != nil {
			return zero, err
		}
		return fn(av, bv), nil
	}, bind(a, opts)...)
}

// Combine3 derives a value from three sources.
func Combine3[A, B, C, R any](a reactive.Derivable[A], b reactive.Derivable[B], c reactive.Derivable[C], fn func(A, B, C) R, opts ...reactive.Option) *reactive.Derivation[R] {
	return reactive.NewDerivation(func() (R, error) {
		var zero R
		av, err := a.Get()
		if err != nil {
			return zero, err
		}
		bv, err := b.Get()
		if err != nil {
			return zero, err
		}
		cv, err := c.Get()
		if err != nil {
			return zero, err
		}
		return fn(av, bv, cv), nil
	}, bind(a, opts)...)
}

// All collects the values of srcs into a slice. It is unresolved while any
// source is unresolved and fails with the first source error.
// An empty srcs yields an empty slice on the default runtime unless
// WithRuntime is given.
func All[T any](srcs []reactive.Derivable[T], opts ...reactive.Option) *reactive.Derivation[[]T] {
	if len(srcs) > 0 {
		opts = bind(srcs[0], opts)
	}
	return reactive.NewDerivation(func() ([]T, error) {
		out := make([]T, 0, len(srcs))
		for _, src := range srcs {
			v, err := src.Get()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}, opts...)
}

// Struct collects named sources into a map. Use Erase to mix sources of
// different types.
//
//	profile := combinators.Struct(map[string]reactive.Derivable[any]{
//	    "name": combinators.Erase(name),
//	    "age":  combinators.Erase(age),
//	})
func Struct[T any](fields map[string]reactive.Derivable[T], opts ...reactive.Option) *reactive.Derivation[map[string]T] {
	for _, src := range fields {
		opts = bind(src, opts)
		break
	}
	return reactive.NewDerivation(func() (map[string]T, error) {
		out := make(map[string]T, len(fields))
		for name, src := range fields {
			v, err := src.Get()
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil
	}, opts...)
}

// Erase converts a typed source to a Derivable[any].
func Erase[T any](src reactive.Derivable[T]) *reactive.Derivation[any] {
	return reactive.Derive(src, func(v T) any { return v })
}

// Pluck derives the value stored under key. It is unresolved while the key
// is missing.
func Pluck[K comparable, V any](src reactive.Derivable[map[K]V], key K, opts ...reactive.Option) *reactive.Derivation[V] {
	return reactive.DeriveErr(src, func(m map[K]V) (V, error) {
		v, ok := m[key]
		if !ok {
			return v, reactive.ErrUnresolved
		}
		return v, nil
	}, opts...)
}

// FallbackTo derives src, substituting fallback while src is unresolved.
// Errors pass through.
func FallbackTo[T any](src reactive.Derivable[T], fallback T, opts ...reactive.Option) *reactive.Derivation[T] {
	return reactive.NewDerivation(func() (T, error) {
		v, err := src.Get()
		if reactive.IsUnresolved(err) {
			return fallback, nil
		}
		return v, err
	}, bind(src, opts)...)
}

// Not negates a boolean source.
func Not(src reactive.Derivable[bool], opts ...reactive.Option) *reactive.Derivation[bool] {
	return reactive.Derive(src, func(b bool) bool { return !b }, opts...)
}

// And is true when every source is true. Sources are read in order and
// reading stops at the first false one, so later sources are not
// dependencies until earlier ones are true.
func And(srcs ...reactive.Derivable[bool]) *reactive.Derivation[bool] {
	return logical(srcs, false)
}

// Or is true when any source is true. Reading stops at the first true
// source.
func Or(srcs ...reactive.Derivable[bool]) *reactive.Derivation[bool] {
	return logical(srcs, true)
}

// logical reads srcs until one equals stop.
func logical(srcs []reactive.Derivable[bool], stop bool) *reactive.Derivation[bool] {
	var opts []reactive.Option
	if len(srcs) > 0 {
		opts = bind(srcs[0], nil)
	}
	return reactive.NewDerivation(func() (bool, error) {
		for _, src := range srcs {
			v, err := src.Get()
			if err != nil {
				return false, err
			}
			if v == stop {
				return stop, nil
			}
		}
		return !stop, nil
	}, opts...)
}

// bind prepends the runtime of src so user options can still override it.
func bind[T any](src reactive.Derivable[T], opts []reactive.Option) []reactive.Option {
	return append([]reactive.Option{reactive.WithRuntime(src.Runtime())}, opts...)
}
