package bitvec

import "sync"

// Word-slice pools, size-classed the same way domain.go pools
// BitSetDomain backing arrays (small/medium/large). Most
// bit-vectors encountered while propagating through a real formula are
// narrow (8/16/32/64 bits => 1 word); wider ones are rarer, so only the
// common classes are pooled and anything larger falls back to a plain
// allocation.
var (
	words1Pool = sync.Pool{New: func() any { return make([]uint64, 1) }}
	words2Pool = sync.Pool{New: func() any { return make([]uint64, 2) }}
	words4Pool = sync.Pool{New: func() any { return make([]uint64, 4) }}
)

// getWords returns a zeroed word slice of length n, for use as scratch
// space inside a single function call (e.g. Mul's double-width
// accumulator). Callers must putWords(buf) before returning and must
// never let buf escape into a Value's backing array: bitvec.Value is
// immutable and may be retained indefinitely in a model map, so only
// slices with a provably function-local lifetime are safe to recycle.
func getWords(n int) []uint64 {
	var buf []uint64
	switch n {
	case 1:
		buf = words1Pool.Get().([]uint64)
	case 2:
		buf = words2Pool.Get().([]uint64)
	case 4:
		buf = words4Pool.Get().([]uint64)
	default:
		return make([]uint64, n)
	}
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// putWords returns a scratch word slice to its pool. Callers must not
// use buf after calling putWords.
func putWords(buf []uint64) {
	switch len(buf) {
	case 1:
		words1Pool.Put(buf) //nolint:staticcheck // fixed-size slice, safe to recycle
	case 2:
		words2Pool.Put(buf)
	case 4:
		words4Pool.Put(buf)
	}
}
