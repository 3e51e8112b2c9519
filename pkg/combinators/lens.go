package combinators

import "github.com/vango-dev/derivable/pkg/reactive"

// Lens is a read/write view of part of an atom.
//
// Reading a Lens behaves like reading a derivation of the atom. Writing it
// writes the whole atom with the part replaced, so every other view of the
// same atom sees the change.
//
//	type Form struct{ Name, Email string }
//	form := reactive.NewAtom(Form{})
//	email := combinators.NewLens(form,
//	    func(f Form) string { return f.Email },
//	    func(f Form, v string) Form { f.Email = v; return f },
//	)
//	email.Set("a@example.com")
type Lens[S, T any] struct {
	*reactive.Derivation[T]
	src *reactive.Atom[S]
	set func(S, T) S
}

// NewLens creates a lens over src.
func NewLens[S, T any](src *reactive.Atom[S], get func(S) T, set func(S, T) S, opts ...reactive.Option) *Lens[S, T] {
	return &Lens[S, T]{
		Derivation: reactive.Derive[S, T](src, get, opts...),
		src:        src,
		set:        set,
	}
}

// Set writes v into the underlying atom.
func (l *Lens[S, T]) Set(v T) {
	l.src.Update(func(s S) S { return l.set(s, v) })
}

// Update sets the part to fn applied to its current value.
func (l *Lens[S, T]) Update(fn func(T) T) {
	cur, _ := l.Peek()
	l.Set(fn(cur))
}

// Source returns the underlying atom.
func (l *Lens[S, T]) Source() *reactive.Atom[S] {
	return l.src
}
