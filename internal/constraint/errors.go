package constraint

import "errors"

var (
	// ErrBound is returned when a registration or Bind call reaches a
	// set that has already been bound to a model.
	ErrBound = errors.New("constraint: set already bound")

	// ErrUnbound is returned when assembly or solving is attempted
	// before Bind.
	ErrUnbound = errors.New("constraint: set not bound")

	// ErrSize is returned for state or weight vectors whose length
	// does not match the bound model.
	ErrSize = errors.New("constraint: dimension mismatch")

	// ErrBody is returned when a constraint references a body id the
	// model does not contain.
	ErrBody = errors.New("constraint: invalid body id")

	// ErrMixedSet is returned when the contact-only solver is invoked
	// on a set holding loop or custom constraints.
	ErrMixedSet = errors.New("constraint: solver requires a pure contact set")
)
