package bitvec

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestFromUint64RoundTrip(t *testing.T) {
	cases := []struct {
		x uint64
		w int
	}{
		{0, 8}, {1, 8}, {255, 8}, {0x1234, 16}, {1, 1}, {0, 1},
	}
	for _, c := range cases {
		v := FromUint64(c.x, c.w)
		if v.Uint64() != c.x {
			t.Fatalf("FromUint64(%d,%d).Uint64() = %d", c.x, c.w, v.Uint64())
		}
		if v.Width() != c.w {
			t.Fatalf("Width = %d, want %d", v.Width(), c.w)
		}
	}
}

func TestAddSubInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		w := 1 + rng.Intn(128)
		a := NewRandom(rng, w)
		b := NewRandom(rng, w)
		sum := a.Add(b)
		back := sum.Sub(b)
		if !Eq(back, a) {
			t.Fatalf("width %d: (a+b)-b != a: a=%s b=%s", w, a, b)
		}
	}
}

func TestNegIsZeroMinusSelf(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		w := 1 + rng.Intn(64)
		a := NewRandom(rng, w)
		if !Eq(a.Neg(), New(w).Sub(a)) {
			t.Fatalf("Neg mismatch at width %d", w)
		}
		if !Eq(a.Add(a.Neg()), New(w)) {
			t.Fatalf("a + -a != 0 at width %d", w)
		}
	}
}

func TestMulAgainstSchoolbookSmall(t *testing.T) {
	for a := uint64(0); a < 16; a++ {
		for b := uint64(0); b < 16; b++ {
			va := FromUint64(a, 4)
			vb := FromUint64(b, 4)
			got := va.Mul(vb).Uint64()
			want := (a * b) % 16
			if got != want {
				t.Fatalf("%d*%d mod 16 = %d, want %d", a, b, got, want)
			}
		}
	}
}

func TestMulWideCrossesWordBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		w := 65 + rng.Intn(128) // forces >1 word
		a := NewRandom(rng, w)
		b := NewRandom(rng, w)
		// commutativity as a sanity cross-check of the schoolbook accumulate
		if !Eq(a.Mul(b), b.Mul(a)) {
			t.Fatalf("Mul not commutative at width %d", w)
		}
	}
}

func TestUmulOverflow(t *testing.T) {
	a := FromUint64(200, 8)
	b := FromUint64(2, 8)
	if !a.UmulOverflow(b) {
		t.Fatalf("200*2 should overflow width 8")
	}
	c := FromUint64(10, 8)
	d := FromUint64(2, 8)
	if c.UmulOverflow(d) {
		t.Fatalf("10*2 should not overflow width 8")
	}
}

func TestUdivUremByZero(t *testing.T) {
	a := FromUint64(42, 8)
	zero := FromUint64(0, 8)
	if !a.Udiv(zero).IsOnes() {
		t.Fatalf("x/0 should be all-ones")
	}
	if !Eq(a.Urem(zero), a) {
		t.Fatalf("x%%0 should be x")
	}
}

func TestUdivUremIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		w := 1 + rng.Intn(64)
		a := NewRandom(rng, w)
		b := NewRandom(rng, w)
		if b.IsZero() {
			continue
		}
		q := a.Udiv(b)
		r := a.Urem(b)
		// a == q*b + r
		if !Eq(q.Mul(b).Add(r), a) {
			t.Fatalf("width %d: q*b+r != a (a=%s b=%s q=%s r=%s)", w, a, b, q, r)
		}
		if Compare(r, b) >= 0 {
			t.Fatalf("remainder %s >= divisor %s", r, b)
		}
	}
}

func TestShlLshrRoundTrip(t *testing.T) {
	v := FromUint64(0b00000001, 8)
	amt := FromUint64(3, 3) // width(v)=8, log2(8)=3
	shifted := v.Shl(amt)
	if shifted.Uint64() != 0b00001000 {
		t.Fatalf("Shl(1,3) = %b, want 00001000", shifted.Uint64())
	}
	back := shifted.Lshr(amt)
	if !Eq(back, v) {
		t.Fatalf("Lshr(Shl(v)) != v: got %s want %s", back, v)
	}
}

func TestShlByMaxAmount(t *testing.T) {
	v := FromUint64(0b10000001, 8)
	amt := FromUint64(7, 3) // max representable amount in 3 bits
	shifted := v.Shl(amt)
	if shifted.Uint64() != 0b10000000 {
		t.Fatalf("Shl by max amount: got %b, want 10000000", shifted.Uint64())
	}
}

func TestSliceConcatRoundTrip(t *testing.T) {
	v := FromUint64(0xAB, 8)
	hi := v.Slice(7, 4)
	lo := v.Slice(3, 0)
	back := Concat(hi, lo)
	if !Eq(back, v) {
		t.Fatalf("Concat(Slice) round trip failed: got %s want %s", back, v)
	}
}

func TestUextPreservesValue(t *testing.T) {
	v := FromUint64(0xFF, 8)
	ext := v.Uext(8)
	if ext.Width() != 16 {
		t.Fatalf("Uext width = %d, want 16", ext.Width())
	}
	if ext.Uint64() != 0xFF {
		t.Fatalf("Uext value = %x, want 0xff", ext.Uint64())
	}
}

func TestNumTrailingLeadingZeros(t *testing.T) {
	v := FromUint64(0b00010000, 8)
	if v.NumTrailingZeros() != 4 {
		t.Fatalf("ctz = %d, want 4", v.NumTrailingZeros())
	}
	if v.NumLeadingZeros() != 3 {
		t.Fatalf("clz = %d, want 3", v.NumLeadingZeros())
	}
	zero := New(8)
	if zero.NumTrailingZeros() != 8 {
		t.Fatalf("ctz(0) = %d, want width 8", zero.NumTrailingZeros())
	}
}

func TestPowerOfTwo(t *testing.T) {
	if FromUint64(16, 8).PowerOfTwo() != 4 {
		t.Fatalf("PowerOfTwo(16) should be 4")
	}
	if FromUint64(17, 8).PowerOfTwo() != -1 {
		t.Fatalf("PowerOfTwo(17) should be -1")
	}
	if FromUint64(0, 8).PowerOfTwo() != -1 {
		t.Fatalf("PowerOfTwo(0) should be -1")
	}
}

func TestModInverse(t *testing.T) {
	for _, w := range []int{4, 8, 16, 32} {
		rng := rand.New(rand.NewSource(int64(w)))
		for i := 0; i < 20; i++ {
			v := NewRandom(rng, w)
			v = v.SetBit(0, 1) // force odd
			inv := v.ModInverse()
			if !inv.Mul(v).IsOne() {
				t.Fatalf("width %d: inv(v)*v != 1 for v=%s", w, v)
			}
		}
	}
}

func TestHammingAndPopCount(t *testing.T) {
	a := FromUint64(0b1010, 4)
	b := FromUint64(0b0110, 4)
	if Hamming(a, b) != 2 {
		t.Fatalf("Hamming = %d, want 2", Hamming(a, b))
	}
	if a.PopCount() != 2 {
		t.Fatalf("PopCount = %d, want 2", a.PopCount())
	}
}

func TestStringAndFormat(t *testing.T) {
	v := FromUint64(0b1010, 4)
	if v.String() != "1010" {
		t.Fatalf("String = %q, want 1010", v.String())
	}
	hex := FromUint64(0xAB, 8)
	s := fmt.Sprintf("%x", hex)
	if s != "ab" {
		t.Fatalf("Format %%x = %q, want ab", s)
	}
}

func TestNewRandomRangeBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	lo := FromUint64(10, 8)
	hi := FromUint64(20, 8)
	for i := 0; i < 100; i++ {
		v := NewRandomRange(rng, 8, lo, hi)
		if Compare(v, lo) < 0 || Compare(v, hi) > 0 {
			t.Fatalf("NewRandomRange produced %s outside [%s,%s]", v, lo, hi)
		}
	}
}
