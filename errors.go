// Package bvprop is the module root. It holds the error taxonomy shared
// across bitvec, dag, model, propagate, sls and solver:
// fatal precondition errors are sentinel values so callers can use
// errors.Is, while soft outcomes (UNKNOWN, recoverable/non-recoverable
// conflicts) are returned by value on the hot path rather than wrapped
// in an error, "never unwind" propagation policy.
package bvprop

import "errors"

// Fatal precondition errors. These terminate the process (or the
// embedding solver instance) rather than propagate as a normal
// control-flow value; callers that recover from them anyway are
// violating a programmer precondition, not handling expected input.
var (
	// ErrSortMismatch is returned when an operator is constructed with
	// children whose sorts fail the sort-inference rule.
	ErrSortMismatch = errors.New("bvprop: sort mismatch")

	// ErrWidthMismatch is returned when a bit-vector primitive is
	// called with operands of incompatible widths.
	ErrWidthMismatch = errors.New("bvprop: width mismatch")

	// ErrZeroWidth is returned when a bit-vector of width < 1 is requested.
	ErrZeroWidth = errors.New("bvprop: zero width")

	// ErrRefOverflow names a node's reference count saturating its
	// counter type. The dag package's int counters are not checked for
	// overflow, so no code path returns it.
	ErrRefOverflow = errors.New("bvprop: reference count overflow")

	// ErrBadOption is returned when set_option is called with a value
	// outside its declared range.
	ErrBadOption = errors.New("bvprop: option value out of range")
)
