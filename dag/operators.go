package dag

import (
	"fmt"
	"sort"

	bvprop "github.com/gitrdm/bvprop"
)

func sortsEqual(a, b *Sort) bool { return a.key() == b.key() }

func requireBitVec(s *Sort, who string) {
	if s.Kind != SortBitVec {
		panic(fmt.Errorf("%w: %s expects BitVec, got %s", bvprop.ErrSortMismatch, who, s))
	}
}

func requireSameSort(a, b *Sort, who string) {
	if !sortsEqual(a, b) {
		panic(fmt.Errorf("%w: %s expects matching sorts, got %s and %s", bvprop.ErrSortMismatch, who, a, b))
	}
}

// sameSign returns e with its inversion cleared and a bool telling the
// caller whether e was inverted. Used by commutative/Eq normalization.
func sameSign(e Edge) (Edge, bool) { return e.Pos(), e.Inverted }

// MkAnd returns a AND b. Under
// SortExp (default on), children are sorted by resolved node id so
// And(a,b) and And(b,a) hash-cons to the same node.
func (m *Manager) MkAnd(a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	sa, sb := m.Sort(ra), m.Sort(rb)
	requireSameSort(sa, sb, "And")
	children := []Edge{ra, rb}
	if m.SortExp {
		sortCommutative(children)
	}
	return m.create(KindAnd, sa, children, 0, 0)
}

func sortCommutative(children []Edge) {
	sort.Slice(children, func(i, j int) bool {
		if children[i].Node != children[j].Node {
			return children[i].Node < children[j].Node
		}
		return !children[i].Inverted && children[j].Inverted
	})
}

// MkEq returns the bit-vector equality a == b (Bool sort). Eq(¬a,¬b) is
// normalized to the same node as Eq(a,b): if both children are
// inverted, both are flipped positive before hashing.
func (m *Manager) MkEq(a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	requireSameSort(m.Sort(ra), m.Sort(rb), "Eq")
	if ra.Inverted && rb.Inverted {
		ra, rb = ra.Pos(), rb.Pos()
	}
	children := []Edge{ra, rb}
	if m.SortExp {
		sortCommutative(children)
	}
	return m.create(KindEq, m.boolSort, children, 0, 0)
}

// MkFunEq returns function/array extensional equality (Bool sort).
// Present for DAG-contract completeness; the
// propagation engine in this module never needs to invert into one
// since arrays/functions are model-tabulated, not bit-vector valued.
func (m *Manager) MkFunEq(a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	requireSameSort(m.Sort(ra), m.Sort(rb), "FunEq")
	e := m.create(KindFunEq, m.boolSort, []Edge{ra, rb}, 0, 0)
	m.feqs[e.Node] = true
	return e
}

// MkUlt returns the unsigned less-than comparison (Bool sort).
func (m *Manager) MkUlt(a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	sa, sb := m.Sort(ra), m.Sort(rb)
	requireBitVec(sa, "Ult")
	requireSameSort(sa, sb, "Ult")
	return m.create(KindUlt, m.boolSort, []Edge{ra, rb}, 0, 0)
}

func (m *Manager) mkBinaryBV(kind Kind, who string, a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	sa, sb := m.Sort(ra), m.Sort(rb)
	requireBitVec(sa, who)
	requireSameSort(sa, sb, who)
	children := []Edge{ra, rb}
	if m.SortExp && (kind == KindAdd || kind == KindMul) {
		sortCommutative(children)
	}
	return m.create(kind, sa, children, 0, 0)
}

// MkAdd returns a+b.
func (m *Manager) MkAdd(a, b Edge) Edge { return m.mkBinaryBV(KindAdd, "Add", a, b) }

// MkMul returns a*b.
func (m *Manager) MkMul(a, b Edge) Edge { return m.mkBinaryBV(KindMul, "Mul", a, b) }

// MkShl returns a shifted left by b. b's width must be log2(width(a)).
func (m *Manager) MkShl(a, b Edge) Edge { return m.mkShiftLike(KindShl, "Shl", a, b) }

// MkLshr returns a shifted right (logical) by b.
func (m *Manager) MkLshr(a, b Edge) Edge { return m.mkShiftLike(KindLshr, "Lshr", a, b) }

func (m *Manager) mkShiftLike(kind Kind, who string, a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	sa, sb := m.Sort(ra), m.Sort(rb)
	requireBitVec(sa, who)
	requireBitVec(sb, who)
	return m.create(kind, sa, []Edge{ra, rb}, 0, 0)
}

// MkUdiv returns truncating unsigned division a/b.
func (m *Manager) MkUdiv(a, b Edge) Edge { return m.mkBinaryBV(KindUdiv, "Udiv", a, b) }

// MkUrem returns the unsigned remainder a%b.
func (m *Manager) MkUrem(a, b Edge) Edge { return m.mkBinaryBV(KindUrem, "Urem", a, b) }

// MkConcat returns a (high bits) concatenated with b (low bits).
func (m *Manager) MkConcat(a, b Edge) Edge {
	ra, rb := m.resolve(a), m.resolve(b)
	sa, sb := m.Sort(ra), m.Sort(rb)
	requireBitVec(sa, "Concat")
	requireBitVec(sb, "Concat")
	return m.create(KindConcat, m.BitVecSort(sa.Width+sb.Width), []Edge{ra, rb}, 0, 0)
}

// MkSlice returns bits [lo,hi] of x (inclusive).
func (m *Manager) MkSlice(x Edge, hi, lo int) Edge {
	rx := m.resolve(x)
	sx := m.Sort(rx)
	requireBitVec(sx, "Slice")
	if lo < 0 || hi < lo || hi >= sx.Width {
		panic(fmt.Errorf("%w: Slice[%d:%d] out of range for BitVec(%d)", bvprop.ErrWidthMismatch, hi, lo, sx.Width))
	}
	return m.create(KindSlice, m.BitVecSort(hi-lo+1), []Edge{rx}, hi, lo)
}

// MkCond returns if c then t else e; the result sort is the
// then-branch's sort, which must equal the else-branch's sort. c must
// be Bool.
func (m *Manager) MkCond(c, t, e Edge) Edge {
	rc, rt, re := m.resolve(c), m.resolve(t), m.resolve(e)
	if !m.Sort(rc).IsBool() {
		panic(fmt.Errorf("%w: Cond condition must be Bool, got %s", bvprop.ErrSortMismatch, m.Sort(rc)))
	}
	requireSameSort(m.Sort(rt), m.Sort(re), "Cond branches")
	return m.create(KindCond, m.Sort(rt), []Edge{rc, rt, re}, 0, 0)
}

// MkArgs packs elems into an argument tuple, used as Apply's second child.
func (m *Manager) MkArgs(elems []Edge) Edge {
	resolved := make([]Edge, len(elems))
	sorts := make([]*Sort, len(elems))
	for i, e := range elems {
		resolved[i] = m.resolve(e)
		sorts[i] = m.Sort(resolved[i])
	}
	tupleSort := &Sort{Kind: SortTuple, Elems: sorts}
	// Args can have arity >3 in general (function domains), but the
	// Node.Children array is capped at 3. A tuple of
	// more than 3 arguments is represented as a right-nested cons of
	// binary Args nodes; domains this module's propagation engine
	// targets (bit-vector and array functions) rarely exceed that, and
	// the nesting is transparent to MkApply/sort inference.
	if len(resolved) <= 3 {
		return m.create(KindArgs, tupleSort, resolved, 0, 0)
	}
	rest := m.MkArgs(resolved[1:])
	restSort := m.Sort(rest)
	combined := &Sort{Kind: SortTuple, Elems: append([]*Sort{sorts[0]}, restSort.Elems...)}
	return m.create(KindArgs, combined, []Edge{resolved[0], rest}, 0, 0)
}

// MkApply applies fn (a UF or Lambda of Fun sort) to an argument tuple
// built by MkArgs. Result sort is fn's codomain.
func (m *Manager) MkApply(fn, args Edge) Edge {
	rfn, rargs := m.resolve(fn), m.resolve(args)
	fs := m.Sort(rfn)
	if fs.Kind != SortFun {
		panic(fmt.Errorf("%w: Apply expects a Fun-sorted callee, got %s", bvprop.ErrSortMismatch, fs))
	}
	requireSameSort(fs.Domain, m.Sort(rargs), "Apply arguments")
	e := m.create(KindApply, fs.Codomain, []Edge{rfn, rargs}, 0, 0)
	m.Node(e.Node).Flags.ApplyBelow = true
	return e
}

// MkLambda binds param in body, producing a single-argument function.
// Curried lambdas are preserved verbatim, never flattened into a
// tuple-domain lambda: call MkLambda repeatedly for λp1. λp2. body to
// get the curried form.
func (m *Manager) MkLambda(param, body Edge) Edge {
	rparam, rbody := m.resolve(param), m.resolve(body)
	pn := m.Node(rparam.Node)
	if pn.Kind != KindParam {
		panic(fmt.Errorf("%w: Lambda binder must be a Param node", bvprop.ErrSortMismatch))
	}
	domain := &Sort{Kind: SortTuple, Elems: []*Sort{pn.Sort}}
	fs := &Sort{Kind: SortFun, Domain: domain, Codomain: m.Sort(rbody)}
	e := m.lambdaCreate(rparam, rbody, fs)
	pn.BoundLambda = e.Node
	pn.HasLambda = true
	m.lambdas[e.Node] = true
	m.Node(e.Node).Flags.LambdaBelow = true
	return e
}
