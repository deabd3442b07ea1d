// Package propagate implements the path-selection, inverse-value,
// consistent-value and driving-loop components of propagation-based
// local search: given a violated Boolean root, it walks down the
// expression toward a free variable, computing at each step a new
// target value that would make the parent true, until it reaches a
// variable to actually flip.
//
// Follows the PropagationConstraint.Propagate contract
// (pkg/minikanren/propagation.go): "takes current state, returns new
// state or an inconsistency" — generalized here from a boolean
// success/failure to a value-or-conflict Outcome, and adapted to avoid
// allocating a new state on every step since the driver runs this in
// the hot loop of every local-search move.
package propagate

import "github.com/gitrdm/bvprop/bitvec"

// ConflictKind classifies why an Outcome carries no value.
type ConflictKind int

const (
	// ConflictNone means Outcome.Value is a usable result.
	ConflictNone ConflictKind = iota
	// ConflictRecoverable means no value exists because of contingent
	// state; the driver should retry via a different path-selection
	// draw rather than treat the whole descent as failed.
	ConflictRecoverable
	// ConflictNonRecoverable means the fixed operand is a constant and
	// no value could ever satisfy the target under the theory; the
	// driver must abort the descent.
	ConflictNonRecoverable
)

// Outcome is the value-or-conflict result threaded through the inverse
// and consistent libraries and the driver, returned
// by value so a hot-loop call never allocates.
type Outcome struct {
	Value bitvec.Value
	Conflict ConflictKind
}

// Ok wraps a successful value.
func Ok(v bitvec.Value) Outcome { return Outcome{Value: v} }

// Recoverable reports a recoverable conflict.
func Recoverable() Outcome { return Outcome{Conflict: ConflictRecoverable} }

// NonRecoverable reports a non-recoverable conflict.
func NonRecoverable() Outcome { return Outcome{Conflict: ConflictNonRecoverable} }

// IsConflict reports whether o carries no usable value.
func (o Outcome) IsConflict() bool { return o.Conflict != ConflictNone }
