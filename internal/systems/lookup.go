package systems

import (
	"errors"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// Lookup finds the subsystem registered in b under name and returns it as an S.
// The subsystem must report kind; a missing name fails with ErrMissingSubsystem
// and a kind or type mismatch with ErrWrongSubsystemType.
func Lookup[S System[T], T scalar.Value[T]](b *Builder[T], name string, kind Kind) (S, error) {
	sys, err := unique(b.systems, "builder", name)
	return typed[S, T](sys, err, name, kind)
}

// LookupSubsystem is Lookup over a built Diagram.
func LookupSubsystem[S System[T], T scalar.Value[T]](d *Diagram[T], name string, kind Kind) (S, error) {
	sys, err := unique(d.systems, "diagram", name)
	return typed[S, T](sys, err, name, kind)
}

func typed[S System[T], T scalar.Value[T]](sys System[T], err error, name string, kind Kind) (S, error) {
	var zero S
	if err != nil {
		var lerr *LookupError
		if errors.As(err, &lerr) {
			lerr.Want = kind
		}
		return zero, err
	}
	if sys.Kind() != kind {
		return zero, &LookupError{Name: name, Want: kind, Got: sys.Kind(), Err: ErrWrongSubsystemType}
	}
	s, ok := sys.(S)
	if !ok {
		return zero, &LookupError{Name: name, Want: kind, Got: sys.Kind(), Err: ErrWrongSubsystemType}
	}
	return s, nil
}
