// Package sls scores the Boolean nodes of an expression DAG for
// propagation-based local search: every Boolean node gets a value in
// [0,1] estimating how close its current bit-vector assignment is to
// satisfying it. Scores are computed on demand by Score and dropped by
// Recompute when the model changes; neither package propagate nor
// package solver reads them when choosing a violated root to descend from.
//
// Follows the shape of constraint Propagate methods (AllDifferent,
// Arithmetic: each computes a consistency signal from the current
// domains rather than re-solving from scratch) generalized from a
// boolean consistent/inconsistent signal to a continuous [0,1] score,
// and on the bottom-up memoized evaluation shape already established in
// package model.
package sls

import (
	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
	"github.com/gitrdm/bvprop/model"
)

// c1 scales the Eq/Ult distance terms into the [0,c1] range so a
// near-miss still scores below a node that's merely plausible.
const c1 = 0.5

// Scorer computes and memoizes scores over a shared dag.Manager and
// model.Context. It implements model.Scorer so a model.Context.Update
// call can drive recomputation directly.
type Scorer struct {
	m *dag.Manager
	c *model.Context

	// score is keyed by the full tagged edge, not just the node id,
	// since the negated forms (¬And, ¬Eq, ¬Ult) have their own
	// formulas rather than a flat 1-minus-positive complement.
	score map[dag.Edge]float64
}

// New returns a Scorer reading values from c.
func New(m *dag.Manager, c *model.Context) *Scorer {
	return &Scorer{m: m, c: c, score: make(map[dag.Edge]float64)}
}

// Score returns e's current score, computing and memoizing bottom-up
// on a cache miss. Inverted edges are scored by their own formula per
// kind (¬And(x,y) = max(s(¬x), s(¬y)), ¬Eq(x,y) = 0.0 if equal else
// 1.0, inverted Ult mirrors Ult) rather than a generic 1-minus-base
// complement, which only holds for Var/Const.
func (s *Scorer) Score(e dag.Edge) float64 {
	if v, ok := s.score[e]; ok {
		return v
	}
	pos := e.Pos()
	var v float64
	switch s.m.Kind(pos) {
	case dag.KindVar, dag.KindConst:
		v = boolScore(s.c.Value(e))
	case dag.KindAnd:
		ch := s.m.Children(pos)
		x, y := ch[0], ch[1]
		if e.Inverted {
			x, y = x.Not(), y.Not()
			v = max(s.Score(x), s.Score(y))
		} else {
			sx, sy := s.Score(x), s.Score(y)
			v = (sx + sy) / 2
			if v == 1.0 && (sx < 1.0 || sy < 1.0) {
				v = min(sx, sy)
			}
		}
	case dag.KindEq:
		ch := s.m.Children(pos)
		a, b := s.c.Value(ch[0]), s.c.Value(ch[1])
		eq := bitvec.Eq(a, b)
		switch {
		case e.Inverted && eq:
			v = 0.0
		case e.Inverted && !eq:
			v = 1.0
		case eq:
			v = 1.0
		default:
			w := a.Width()
			v = c1 * (1 - float64(bitvec.Hamming(a, b))/float64(w))
		}
	case dag.KindUlt:
		ch := s.m.Children(pos)
		a, b := s.c.Value(ch[0]), s.c.Value(ch[1])
		if e.Inverted {
			v = scoreInvertedUlt(a, b)
		} else if bitvec.Ult(a, b) {
			v = 1.0
		} else {
			w := a.Width()
			v = c1 * (1 - float64(minflip(a, b))/float64(w))
		}
	default:
		// Non-Boolean-operator nodes (arithmetic, slices, etc.) have no
		// direct SLS score; callers only ever Score a Bool-sorted edge.
		v = boolScore(s.c.Value(e))
	}
	s.score[e] = v
	return v
}

func boolScore(v bitvec.Value) float64 {
	if v.IsTrue() || (v.Width() != 1 && !v.IsZero()) {
		return 1.0
	}
	return 0.0
}

// minflip returns the minimum number of bits that must be flipped in a
// to make a<b, given a>=b. Scanning from the most significant bit, each
// position i where b has a 1 is a candidate: a is made equal to b on
// every bit above i and a's bit i is cleared, costing the number of
// bits above i where a and b differ plus a's bit i. The result is the
// cheapest candidate, or the width when b is zero (no a<0 exists).
func minflip(a, b bitvec.Value) int {
	if bitvec.Ult(a, b) {
		return 0
	}
	w := a.Width()
	best := w
	diffAbove := 0
	for i := w - 1; i >= 0; i-- {
		ai, bi := a.GetBit(i), b.GetBit(i)
		if bi == 1 && diffAbove+ai < best {
			best = diffAbove + ai
		}
		if ai != bi {
			diffAbove++
		}
	}
	return best
}

// scoreInvertedUlt mirrors the Ult score for the negated direction
// (a>=b): 1.0 when already satisfied, else the Ult formula with the
// Hamming distance between a and b (the flips that make a equal to b,
// an upper bound on the minimum flips in a needed to reach a>=b).
func scoreInvertedUlt(a, b bitvec.Value) float64 {
	if !bitvec.Ult(a, b) {
		return 1.0
	}
	w := a.Width()
	return c1 * (1 - float64(bitvec.Hamming(a, b))/float64(w))
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Recompute implements model.Scorer: drop cached scores for ids so the
// next Score call re-derives them from the (already updated) model
// values, mirroring the lazy-recompute style of Score and model's eval.
func (s *Scorer) Recompute(ids []dag.NodeID) {
	for _, id := range ids {
		delete(s.score, dag.Edge{Node: id})
		delete(s.score, dag.Edge{Node: id, Inverted: true})
	}
}

// Invalidate drops every memoized score, for use after a full restart.
func (s *Scorer) Invalidate() {
	s.score = make(map[dag.Edge]float64)
}
