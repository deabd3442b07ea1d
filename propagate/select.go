package propagate

import (
	"math/rand"

	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
	"github.com/gitrdm/bvprop/model"
)

// Mode selects between the deterministic per-operator rule table and
// uniform random path selection.
type Mode int

const (
	ModeEssential Mode = iota
	ModeRandom
)

// Options bundles the tunables the path selector, inverse library, and
// driver all read, following the SolverConfig pattern (fd.go):
// a small struct of named knobs rather than a long positional argument
// list, constructed once per solver and passed down by reference.
type Options struct {
	Mode Mode
	Rng *rand.Rand
	UseInv float64 // probability of using Inverse over Consistent
	KeepBits float64 // probability Slice's inverse keeps a non-projected bit's prior value

	// PFlipCond and PFlipCondConst are the Cond-specific probabilities
	// of the path-selection table below.
	PFlipCond float64
	PFlipCondConst float64
}

// DefaultOptions returns conservative defaults: essential path
// selection, inverse favored heavily over consistent, and a modest
// condition-flip rate.
func DefaultOptions(rng *rand.Rand) *Options {
	return &Options{
		Mode: ModeEssential,
		Rng: rng,
		UseInv: 0.9,
		KeepBits: 0.5,
		PFlipCond: 0.05,
		PFlipCondConst: 0.5,
	}
}

// SelectPath chooses the child index of e (a positive, non-Var,
// non-Const node) to propagate bvop into. For Cond it
// returns 0 (condition), 1 (then), or 2 (else); for every other
// multi-child operator it returns 0 or 1; for Slice it always returns 0.
func SelectPath(m *dag.Manager, ctx *model.Context, e dag.Edge, bvop bitvec.Value, opts *Options) int {
	kind := m.Kind(e)
	children := m.Children(e)

	if kind == dag.KindSlice {
		return 0
	}
	if kind == dag.KindCond {
		return selectCond(m, ctx, children, bvop, opts)
	}

	a, b := children[0], children[1]
	constA := m.Kind(a) == dag.KindConst
	constB := m.Kind(b) == dag.KindConst
	if constA && !constB {
		return 1
	}
	if constB && !constA {
		return 0
	}

	if opts.Mode == ModeRandom {
		return opts.Rng.Intn(2)
	}

	bve0, bve1 := ctx.Value(a), ctx.Value(b)
	switch kind {
	case dag.KindAnd:
		return selectAnd(bve0, bve1, bvop, opts)
	case dag.KindUlt:
		return selectUlt(bve0, bve1, bvop, opts)
	case dag.KindShl, dag.KindLshr:
		return selectShiftLike(kind, bve0, bve1, bvop, opts)
	case dag.KindMul:
		return selectMul(bve0, bve1, bvop, opts)
	case dag.KindUdiv, dag.KindUrem:
		return selectDivLike(bve0, bve1, bvop, opts)
	case dag.KindConcat:
		return selectConcat(bve0, bve1, bvop, opts)
	default:
		return opts.Rng.Intn(2)
	}
}

func selectAnd(bve0, bve1, bvop bitvec.Value, opts *Options) int {
	if bve0.Width() == 1 {
		z0, z1 := bve0.IsZero(), bve1.IsZero()
		if z0 != z1 {
			if z0 {
				return 0
			}
			return 1
		}
		return opts.Rng.Intn(2)
	}
	v0 := !bitvec.Eq(bve0.And(bvop), bvop)
	v1 := !bitvec.Eq(bve1.And(bvop), bvop)
	if v0 && !v1 {
		return 0
	}
	if v1 && !v0 {
		return 1
	}
	return opts.Rng.Intn(2)
}

func selectUlt(bve0, bve1, bvop bitvec.Value, opts *Options) int {
	if bvop.IsTrue() {
		if bve0.IsOnes() {
			return 0
		}
		if bve1.IsZero() {
			return 1
		}
	}
	return opts.Rng.Intn(2)
}

// selectShiftLike checks whether the shift-out bits of bvop are zero
// under the current shift amount and whether the surviving
// shifted-through bits match bve0; the side whose invariant is
// violated is the one to propagate into.
func selectShiftLike(kind dag.Kind, bve0, bve1, bvop bitvec.Value, opts *Options) int {
	var candidate bitvec.Value
	if kind == dag.KindShl {
		candidate = bve0.Shl(bve1)
	} else {
		candidate = bve0.Lshr(bve1)
	}
	if bitvec.Eq(candidate, bvop) {
		return opts.Rng.Intn(2)
	}

	w := bve0.Width()
	amt := int(bve1.Uint64())
	if amt > w {
		amt = w
	}

	zeroFillOK := true
	throughOK := true
	if kind == dag.KindShl {
		if amt > 0 {
			zeroFillOK = bvop.Slice(amt-1, 0).IsZero()
		}
		if amt < w {
			throughOK = bitvec.Eq(bvop.Slice(w-1, amt), bve0.Slice(w-1-amt, 0))
		} else {
			throughOK = bvop.IsZero()
		}
	} else {
		if amt > 0 {
			zeroFillOK = bvop.Slice(w-1, w-amt).IsZero()
		}
		if amt < w {
			throughOK = bitvec.Eq(bvop.Slice(w-1-amt, 0), bve0.Slice(w-1, amt))
		} else {
			throughOK = bvop.IsZero()
		}
	}

	// zeroFillOK is necessary for any x to explain bvop under the
	// current shift amount; if it fails no x can fix this, so the
	// amount (side 1) is at fault. Otherwise a shifted-through
	// mismatch against bve0 points at the shifted value (side 0).
	if !zeroFillOK {
		return 1
	}
	if !throughOK {
		return 0
	}
	return opts.Rng.Intn(2)
}

func selectMul(bve0, bve1, bvop bitvec.Value, opts *Options) int {
	z0, z1 := bve0.IsZero(), bve1.IsZero()
	if !bvop.IsZero() {
		if z0 && !z1 {
			return 0
		}
		if z1 && !z0 {
			return 1
		}
	}
	if bvop.GetBit(0) == 1 {
		e0, e1 := bve0.GetBit(0) == 0, bve1.GetBit(0) == 0
		if e0 && !e1 {
			return 0
		}
		if e1 && !e0 {
			return 1
		}
	}
	c0, c1 := bve0.NumTrailingZeros(), bve1.NumTrailingZeros()
	if c0 != c1 {
		if c0 < c1 {
			return 0
		}
		return 1
	}
	return opts.Rng.Intn(2)
}

// selectDivLike has no operator-specific rule of its own: it prefers
// whichever side is currently zero when the target is nonzero, and
// otherwise falls back to random, consistent with the closing
// fallback rule the other operator-specific selectors share.
func selectDivLike(bve0, bve1, bvop bitvec.Value, opts *Options) int {
	if !bvop.IsZero() {
		if bve0.IsZero() && !bve1.IsZero() {
			return 0
		}
		if bve1.IsZero() && !bve0.IsZero() {
			return 1
		}
	}
	return opts.Rng.Intn(2)
}

func selectConcat(bve0, bve1, bvop bitvec.Value, opts *Options) int {
	w1 := bve1.Width()
	hi := bvop.Slice(bvop.Width()-1, w1)
	lo := bvop.Slice(w1-1, 0)
	m0 := bitvec.Eq(hi, bve0)
	m1 := bitvec.Eq(lo, bve1)
	if !m0 && m1 {
		return 0
	}
	if !m1 && m0 {
		return 1
	}
	return opts.Rng.Intn(2)
}

func selectCond(m *dag.Manager, ctx *model.Context, children []dag.Edge, bvop bitvec.Value, opts *Options) int {
	cond, thenE, elseE := children[0], children[1], children[2]
	if m.Kind(cond) == dag.KindConst {
		if ctx.Bool(cond) {
			return 1
		}
		return 2
	}

	condVal := ctx.Bool(cond)
	thenConstMatches := m.Kind(thenE) == dag.KindConst && bitvec.Eq(ctx.Value(thenE), bvop)
	elseConstMatches := m.Kind(elseE) == dag.KindConst && bitvec.Eq(ctx.Value(elseE), bvop)

	flipP := opts.PFlipCond
	if thenConstMatches || elseConstMatches {
		flipP = opts.PFlipCondConst
	}
	if opts.Rng.Float64() < flipP {
		return 0
	}
	if condVal {
		return 1
	}
	return 2
}
