package propagate

import (
	"math/rand"

	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
)

// InverseInput bundles the arguments an inverse-value computation needs
//. Not every field is meaningful for every operator; the
// doc comment on each case in Inverse says which ones it reads.
type InverseInput struct {
	Kind dag.Kind
	EIdx int

	Bvop bitvec.Value // desired output value
	Bve bitvec.Value // the fixed other operand (unused for Slice)

	// Slice-only.
	SliceHi, SliceLo int
	FullWidth int
	PriorX bitvec.Value // prior value of the full-width operand, may be zero Value

	// Shift-into-amount-side-only: the width of the shift-amount operand,
	// used to size the returned shift-amount encoding.
	ShiftAmountWidth int
}

// Inverse computes x such that applying in.Kind at side in.EIdx to
// (in.Bve, x) (or the symmetric arrangement for commutative ops)
// produces in.Bvop, or reports a conflict.
func Inverse(in InverseInput, opts *Options) Outcome {
	switch in.Kind {
	case dag.KindAdd:
		return Ok(in.Bvop.Sub(in.Bve))
	case dag.KindAnd:
		return inverseAnd(in.Bvop, in.Bve, opts.Rng)
	case dag.KindEq:
		return inverseEq(in.Bvop, in.Bve, opts.Rng)
	case dag.KindUlt:
		return inverseUlt(in.EIdx, in.Bvop, in.Bve, opts.Rng)
	case dag.KindShl:
		return inverseShl(in, opts.Rng)
	case dag.KindLshr:
		return inverseLshr(in, opts.Rng)
	case dag.KindMul:
		return inverseMul(in.Bvop, in.Bve, opts.Rng)
	case dag.KindUdiv:
		return inverseUdiv(in.EIdx, in.Bvop, in.Bve, opts.Rng)
	case dag.KindUrem:
		return inverseUrem(in.EIdx, in.Bvop, in.Bve, opts.Rng)
	case dag.KindConcat:
		return inverseConcat(in.EIdx, in.Bvop, in.Bve)
	case dag.KindSlice:
		return inverseSlice(in, opts)
	default:
		return NonRecoverable()
	}
}

// inverseAnd implements the per-bit rule: bits bvop forces to 1
// require bve to already have them, bits it forces to 0 are free
// whenever bve has them set, and untouched bits are free.
func inverseAnd(bvop, bve bitvec.Value, rng *rand.Rand) Outcome {
	w := bvop.Width()
	x := bitvec.New(w)
	for i := 0; i < w; i++ {
		switch {
		case bvop.GetBit(i) == 1:
			if bve.GetBit(i) != 1 {
				return Recoverable()
			}
			x = x.SetBit(i, 1)
		case bve.GetBit(i) == 1:
			x = x.SetBit(i, 0)
		default:
			x = x.SetBit(i, rng.Intn(2))
		}
	}
	return Ok(x)
}

func inverseEq(bvop, bve bitvec.Value, rng *rand.Rand) Outcome {
	if bvop.IsTrue() {
		return Ok(bve.Copy())
	}
	return Ok(randomNotEqual(rng, bve))
}

func randomNotEqual(rng *rand.Rand, excluded bitvec.Value) bitvec.Value {
	w := excluded.Width()
	if w == 1 {
		return excluded.Not()
	}
	for {
		cand := bitvec.NewRandom(rng, w)
		if !bitvec.Eq(cand, excluded) {
			return cand
		}
	}
}

func inverseUlt(eidx int, bvop, bve bitvec.Value, rng *rand.Rand) Outcome {
	w := bve.Width()
	switch {
	case bvop.IsTrue() && eidx == 0:
		if bve.IsZero() {
			return Recoverable()
		}
		hi := bve.Sub(bitvec.One(w))
		return Ok(bitvec.NewRandomRange(rng, w, bitvec.New(w), hi))
	case bvop.IsTrue() && eidx == 1:
		if bve.IsOnes() {
			return Recoverable()
		}
		lo := bve.Add(bitvec.One(w))
		return Ok(bitvec.NewRandomRange(rng, w, lo, bitvec.Ones(w)))
	case !bvop.IsTrue() && eidx == 0:
		return Ok(bitvec.NewRandomRange(rng, w, bve, bitvec.Ones(w)))
	default: // !bvop.IsTrue() && eidx == 1
		return Ok(bitvec.NewRandomRange(rng, w, bitvec.New(w), bve))
	}
}

// lshrN and shlN are unchecked logical shifts by a literal int amount,
// used as internal scratch arithmetic inside the inverse computations
// below (e.g. splitting a value at its trailing-zero count); unlike
// bitvec.Value.Shl/Lshr they don't enforce the DAG-construction
// shift-width/power-of-two rule, since here the shift amount is derived
// from ctz/clz, not from another bit-vector operand.
func lshrN(v bitvec.Value, n int) bitvec.Value {
	w := v.Width()
	if n >= w {
		return bitvec.New(w)
	}
	out := bitvec.New(w)
	for i := n; i < w; i++ {
		if v.GetBit(i) != 0 {
			out = out.SetBit(i-n, 1)
		}
	}
	return out
}

func shlN(v bitvec.Value, n int) bitvec.Value {
	w := v.Width()
	if n >= w {
		return bitvec.New(w)
	}
	out := bitvec.New(w)
	for i := 0; i < w-n; i++ {
		if v.GetBit(i) != 0 {
			out = out.SetBit(i+n, 1)
		}
	}
	return out
}

func encodeAmount(n, amountWidth int) bitvec.Value {
	return bitvec.FromUint64(uint64(n), amountWidth)
}

// inverseShl handles both sides of Shl.
func inverseShl(in InverseInput, rng *rand.Rand) Outcome {
	if in.EIdx == 1 {
		// Solve for the shift amount, base value (in.Bve) fixed.
		w := in.Bve.Width()
		if in.Bve.IsZero() && in.Bvop.IsZero() {
			return Ok(encodeAmount(rng.Intn(w), in.ShiftAmountWidth))
		}
		shift := in.Bvop.NumTrailingZeros() - in.Bve.NumTrailingZeros()
		if shift < 0 || shift >= w {
			return Recoverable()
		}
		if !bitvec.Eq(shlN(in.Bve, shift), in.Bvop) {
			return Recoverable()
		}
		return Ok(encodeAmount(shift, in.ShiftAmountWidth))
	}
	// Solve for the base value, shift amount (in.Bve) fixed.
	w := in.Bvop.Width()
	shiftInt := int(in.Bve.Uint64())
	if in.Bvop.NumTrailingZeros() < shiftInt && !in.Bvop.IsZero() {
		return Recoverable()
	}
	x := lshrN(in.Bvop, shiftInt)
	for i := w - shiftInt; i < w && i >= 0; i++ {
		x = x.SetBit(i, rng.Intn(2))
	}
	return Ok(x)
}

// inverseLshr mirrors inverseShl using leading zeros.
func inverseLshr(in InverseInput, rng *rand.Rand) Outcome {
	if in.EIdx == 1 {
		w := in.Bve.Width()
		if in.Bve.IsZero() && in.Bvop.IsZero() {
			return Ok(encodeAmount(rng.Intn(w), in.ShiftAmountWidth))
		}
		shift := in.Bvop.NumLeadingZeros() - in.Bve.NumLeadingZeros()
		if shift < 0 || shift >= w {
			return Recoverable()
		}
		if !bitvec.Eq(lshrN(in.Bve, shift), in.Bvop) {
			return Recoverable()
		}
		return Ok(encodeAmount(shift, in.ShiftAmountWidth))
	}
	w := in.Bvop.Width()
	shiftInt := int(in.Bve.Uint64())
	if in.Bvop.NumLeadingZeros() < shiftInt && !in.Bvop.IsZero() {
		return Recoverable()
	}
	x := shlN(in.Bvop, shiftInt)
	for i := 0; i < shiftInt && i < w; i++ {
		x = x.SetBit(i, rng.Intn(2))
	}
	return Ok(x)
}

func inverseMul(bvop, bve bitvec.Value, rng *rand.Rand) Outcome {
	w := bve.Width()
	if bve.IsZero() {
		if bvop.IsZero() {
			return Ok(bitvec.NewRandom(rng, w))
		}
		return Recoverable()
	}
	if bve.GetBit(0) == 1 {
		return Ok(bvop.Mul(bve.ModInverse()))
	}
	n := bve.NumTrailingZeros()
	if bvop.NumTrailingZeros() < n {
		return Recoverable()
	}
	m := lshrN(bve, n)
	cPrime := lshrN(bvop, n)
	x := cPrime.Mul(m.ModInverse())
	for i := w - n; i < w; i++ {
		x = x.SetBit(i, rng.Intn(2))
	}
	return Ok(x)
}

// inverseUdiv implements truncating-division inversion, derived
// directly from integer-division identities rather than a table.
func inverseUdiv(eidx int, bvop, bve bitvec.Value, rng *rand.Rand) Outcome {
	w := bvop.Width()
	if eidx == 0 {
		// x / bve = bvop, bve (divisor) fixed.
		if bve.IsZero() {
			if bvop.IsOnes() {
				return Ok(bitvec.NewRandom(rng, w))
			}
			return Recoverable()
		}
		if bve.UmulOverflow(bvop) {
			return Recoverable()
		}
		base := bve.Mul(bvop)
		room := bitvec.Ones(w).Sub(base)
		maxR := bve.Sub(bitvec.One(w))
		if bitvec.Compare(room, maxR) < 0 {
			maxR = room
		}
		r := bitvec.NewRandomRange(rng, w, bitvec.New(w), maxR)
		return Ok(base.Add(r))
	}
	// bve / x = bvop, dividend bve fixed, solve for divisor x.
	if bvop.IsOnes() {
		return Ok(bitvec.New(w)) // x=0: bve/0 = all-ones always
	}
	if bvop.IsZero() {
		if bve.IsOnes() {
			return Recoverable()
		}
		lo := bve.Add(bitvec.One(w))
		return Ok(bitvec.NewRandomRange(rng, w, lo, bitvec.Ones(w)))
	}
	sMax := bve.Udiv(bvop)
	tPlus1 := bvop.Add(bitvec.One(w))
	sMin := bve.Udiv(tPlus1).Add(bitvec.One(w))
	if bitvec.Compare(sMin, sMax) > 0 {
		return Recoverable()
	}
	return Ok(bitvec.NewRandomRange(rng, w, sMin, sMax))
}

// inverseUrem implements remainder inversion, derived the same way as inverseUdiv.
func inverseUrem(eidx int, bvop, bve bitvec.Value, rng *rand.Rand) Outcome {
	w := bvop.Width()
	if eidx == 0 {
		// x % bve = bvop, divisor bve fixed.
		if bve.IsZero() {
			return Ok(bvop.Copy())
		}
		if bitvec.Compare(bvop, bve) >= 0 {
			return Recoverable()
		}
		room := bitvec.Ones(w).Sub(bvop)
		kMax := room.Udiv(bve)
		k := bitvec.NewRandomRange(rng, w, bitvec.New(w), kMax)
		return Ok(bve.Mul(k).Add(bvop))
	}
	// bve % x = bvop, dividend bve fixed, solve for divisor x.
	if bitvec.Eq(bvop, bve) {
		return Ok(bitvec.New(w)) // x=0: bve%0 = bve always
	}
	if bitvec.Ult(bve, bvop) {
		return Recoverable() // a remainder never exceeds its dividend
	}
	diff := bve.Sub(bvop)
	if bitvec.Compare(bvop.Add(bitvec.One(w)), diff) > 0 {
		return Recoverable() // no divisor of diff is greater than bvop
	}
	const trials = 32
	for i := 0; i < trials; i++ {
		cand := bitvec.NewRandomRange(rng, w, bvop.Add(bitvec.One(w)), diff)
		if cand.IsZero() {
			continue
		}
		if bitvec.Eq(diff.Urem(cand), bitvec.New(w)) {
			return Ok(cand)
		}
	}
	return Recoverable()
}

func inverseConcat(eidx int, bvop, bve bitvec.Value) Outcome {
	total := bvop.Width()
	if eidx == 0 {
		wb := bve.Width()
		x := bvop.Slice(total-1, wb)
		low := bvop.Slice(wb-1, 0)
		if !bitvec.Eq(low, bve) {
			return Recoverable()
		}
		return Ok(x)
	}
	wa := bve.Width()
	wb := total - wa
	x := bvop.Slice(wb-1, 0)
	hi := bvop.Slice(total-1, wb)
	if !bitvec.Eq(hi, bve) {
		return Recoverable()
	}
	return Ok(x)
}

// inverseSlice rebuilds a full-width value with the projected bits set
// to bvop's bits and the remaining bits kept from PriorX with
// probability opts.KeepBits (else redrawn randomly).
func inverseSlice(in InverseInput, opts *Options) Outcome {
	w := in.FullWidth
	var x bitvec.Value
	if in.PriorX.Width() == w && opts.Rng.Float64() < opts.KeepBits {
		x = in.PriorX.Copy()
	} else {
		x = bitvec.NewRandom(opts.Rng, w)
	}
	for i := 0; i < in.Bvop.Width(); i++ {
		x = x.SetBit(in.SliceLo+i, in.Bvop.GetBit(i))
	}
	return Ok(x)
}
