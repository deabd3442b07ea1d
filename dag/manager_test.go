package dag

import (
	"testing"

	"github.com/gitrdm/bvprop/bitvec"
)

func TestHashConsingIdempotence(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(8), "x")
	y := m.MkVar(m.BitVecSort(8), "y")

	a1 := m.MkAdd(x, y)
	a2 := m.MkAdd(x, y)
	if a1.Node != a2.Node {
		t.Fatalf("create(Add,x,y) not idempotent: %d != %d", a1.Node, a2.Node)
	}
}

func TestCommutativeNormalization(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(4), "x")
	y := m.MkVar(m.BitVecSort(4), "y")

	a1 := m.MkAnd(x, y)
	a2 := m.MkAnd(y, x)
	if a1.Node != a2.Node {
		t.Fatalf("And(x,y) != And(y,x) under SortExp: %d vs %d", a1.Node, a2.Node)
	}

	e1 := m.MkEq(x, y)
	e2 := m.MkEq(y, x)
	if e1.Node != e2.Node {
		t.Fatalf("Eq(x,y) != Eq(y,x): %d vs %d", e1.Node, e2.Node)
	}
}

func TestInversionFolding(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(4), "x")

	nn := x.Not().Not()
	if nn.Node != x.Node || nn.Inverted != x.Inverted {
		t.Fatalf("Not(Not(x)) != x")
	}

	c := m.MkConst(bitvec.FromUint64(0b0110, 4)) // even, LSB=0: stored as-is
	if c.Inverted {
		t.Fatalf("even constant should not be stored inverted")
	}
	codd := m.MkConst(bitvec.FromUint64(0b0111, 4)) // odd, LSB=1: stored complemented
	if !codd.Inverted {
		t.Fatalf("odd constant must be stored inverted")
	}
	v, ok := m.ConstValue(codd)
	if !ok || !bitvec.Eq(v, bitvec.FromUint64(0b0111, 4)) {
		t.Fatalf("ConstValue should honor inversion and read back 0b0111, got %v ok=%v", v, ok)
	}
}

func TestEqDoubleNegationNormalization(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(4), "x")
	y := m.MkVar(m.BitVecSort(4), "y")

	e1 := m.MkEq(x, y)
	e2 := m.MkEq(x.Not(), y.Not())
	if e1.Node != e2.Node {
		t.Fatalf("Eq(not x,not y) should normalize to Eq(x,y)")
	}
}

func TestSortInference(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(8), "x")
	y := m.MkVar(m.BitVecSort(8), "y")

	add := m.MkAdd(x, y)
	if m.Sort(add).Width != 8 {
		t.Fatalf("Add sort should be width 8, got %v", m.Sort(add))
	}

	eq := m.MkEq(x, y)
	if !m.Sort(eq).IsBool() {
		t.Fatalf("Eq sort should be Bool")
	}

	sl := m.MkSlice(x, 3, 0)
	if m.Sort(sl).Width != 4 {
		t.Fatalf("Slice[3:0] sort should be width 4, got %v", m.Sort(sl))
	}

	cc := m.MkConcat(x, y)
	if m.Sort(cc).Width != 16 {
		t.Fatalf("Concat sort should be width 16, got %v", m.Sort(cc))
	}
}

func TestSortMismatchPanics(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(8), "x")
	y := m.MkVar(m.BitVecSort(4), "y")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on width mismatch")
		}
	}()
	m.MkAdd(x, y)
}

func TestReferenceCountBalance(t *testing.T) {
	m := NewManager()
	before := m.NumNodes()

	x := m.MkVar(m.BitVecSort(8), "x")
	y := m.MkVar(m.BitVecSort(8), "y")
	s := m.MkAdd(x, y)
	s2 := m.MkAdd(x, y) // same node, second external handle

	m.Release(s2)
	m.Release(s)
	m.Release(x)
	m.Release(y)

	after := m.NumNodes()
	if after != before {
		t.Fatalf("unique-table population did not return to baseline: before=%d after=%d", before, after)
	}
}

func TestProxyTransparency(t *testing.T) {
	m := NewManager()
	x := m.MkVar(m.BitVecSort(4), "x")
	c := m.MkConst(bitvec.FromUint64(3, 4))
	n := m.MkAdd(x, c)

	replacement := m.MkConst(bitvec.FromUint64(7, 4))
	m.Rewrite(n, replacement)

	if m.Kind(n) != KindConst {
		t.Fatalf("expected n to resolve through proxy to a Const node")
	}
	v, ok := m.ConstValue(n)
	if !ok || !bitvec.Eq(v, bitvec.FromUint64(7, 4)) {
		t.Fatalf("proxy lookup should read through to replacement value")
	}
}

func TestLambdaAlphaEquivalence(t *testing.T) {
	m := NewManager()
	s8 := m.BitVecSort(8)

	px := m.MkParam(s8, "x")
	py := m.MkParam(s8, "y")
	c := m.MkConst(bitvec.FromUint64(1, 8))

	lamX := m.MkLambda(px, m.MkAdd(px, c))
	lamY := m.MkLambda(py, m.MkAdd(py, c))

	if lamX.Node != lamY.Node {
		t.Fatalf("alpha-equivalent lambdas should hash-cons to the same node")
	}
}
