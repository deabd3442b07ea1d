package propagate

import (
	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
)

// ConsistentInput mirrors InverseInput but Consistent never reads Bve:
// by definition the consistent value is drawn from a
// distribution conditioned on Bvop alone.
type ConsistentInput struct {
	Kind dag.Kind
	EIdx int
	Bvop bitvec.Value
	Width int // width of the value to produce
	ShiftAmountWidth int // for Shl/Lshr's amount side
}

// Consistent returns a value that is merely plausible for in.Bvop,
// without regard to solvability against the sibling operand. Used as
// the stochastic alternative to Inverse (governed by
// Options.UseInv) and as the recovery value on a recoverable conflict.
// Never reports a conflict: a plausible value always exists.
func Consistent(in ConsistentInput, opts *Options) bitvec.Value {
	switch in.Kind {
	case dag.KindAnd:
		return consistentAnd(in.Bvop, in.Width, opts)
	case dag.KindMul:
		return consistentMul(in.Bvop, in.Width, opts)
	case dag.KindShl, dag.KindLshr:
		if in.EIdx == 1 {
			return encodeAmount(opts.Rng.Intn(in.Width), in.ShiftAmountWidth)
		}
		return bitvec.NewRandom(opts.Rng, in.Width)
	default:
		return bitvec.NewRandom(opts.Rng, in.Width)
	}
}

// consistentAnd draws x with every bit bvop forces to 1 also set in x,
// and every other bit free.
func consistentAnd(bvop bitvec.Value, w int, opts *Options) bitvec.Value {
	x := bitvec.NewRandom(opts.Rng, w)
	for i := 0; i < bvop.Width(); i++ {
		if bvop.GetBit(i) == 1 {
			x = x.SetBit(i, 1)
		}
	}
	return x
}

// consistentMul draws any odd x when bvop is odd, else an
// unconstrained random value.
func consistentMul(bvop bitvec.Value, w int, opts *Options) bitvec.Value {
	x := bitvec.NewRandom(opts.Rng, w)
	if bvop.GetBit(0) == 1 {
		x = x.SetBit(0, 1)
	}
	return x
}
