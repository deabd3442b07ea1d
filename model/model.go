// Package model implements the bottom-up evaluator and cone-of-influence
// update procedure over a dag.Manager expression graph: for every free
// variable and uninterpreted-function application it maintains a current
// bit-vector assignment, memoizes derived node values, and recomputes
// only the affected subgraph when an input changes.
//
// The evaluation rules follow a solver.go-style fixed-point
// propagation loop (re-derive downstream state from a changed input,
// memoize, repeat only over the affected region) adapted from
// copy-on-write immutable snapshots to a single mutable model owned by
// one solver instance, and from constraint-arc propagation to
// expression-DAG bottom-up evaluation. The per-kind evaluation switch is
// grounded on the gini reference file's Eval/Eval64 pattern (AIG
// bottom-up valuation with inversion folded into the edge).
package model

import (
	"fmt"
	"sort"

	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
)

// argsKey renders an evaluated argument tuple to a map key. Function
// models are small tables keyed by argument bit pattern, not learned
// total functions: if the argument tuple is already tabulated its
// recorded value is reused, otherwise a fresh value is chosen and recorded.
type argsKey string

func keyOf(args bitvec.Value) argsKey {
	return argsKey(fmt.Sprintf("%d:%s", args.Width(), args.String()))
}

// Context owns one solver instance's current assignment: the
// bottom-up-evaluated value of every internal node plus the tabulated
// models of uninterpreted functions.
type Context struct {
	m *dag.Manager

	bv map[dag.NodeID]bitvec.Value // value of the non-inverted edge for each node
	fun map[dag.NodeID]map[argsKey]bitvec.Value

	// rng-free by default: fresh function values are zero unless
	// SetFreshFunValue installs a policy, and variables are zero until
	// SetVar gives them a value. Kept as a
	// func hook rather than a *rand.Rand field so a solver can swap
	// determinism policy without re-creating the context.
	freshFunValue func(dag.NodeID, argsKey, *dag.Sort) bitvec.Value
}

// NewContext returns an empty model over m. Every free variable
// implicitly starts at its zero default; callers
// installing a random initial assignment should call SetVar for each
// input after construction.
func NewContext(m *dag.Manager) *Context {
	return &Context{
		m: m,
		bv: make(map[dag.NodeID]bitvec.Value),
		fun: make(map[dag.NodeID]map[argsKey]bitvec.Value),
	}
}

// SetFreshFunValue installs the policy used to invent a value for an
// untabulated function application. The default (nil) policy returns
// the codomain's zero value.
func (c *Context) SetFreshFunValue(f func(id dag.NodeID, key argsKey, codomain *dag.Sort) bitvec.Value) {
	c.freshFunValue = f
}

// Value returns the current bit-vector assignment for e, honoring e's
// inversion, evaluating (and memoizing) bottom-up on a cache miss.
func (c *Context) Value(e dag.Edge) bitvec.Value {
	v := c.eval(e.Node)
	if e.Inverted {
		return v.Not()
	}
	return v
}

// Bool returns whether e currently evaluates to true; e must be
// Bool-sorted (width 1, Bool-as-BitVec1 convention).
func (c *Context) Bool(e dag.Edge) bool {
	return c.Value(e).IsTrue()
}

// SetVar installs v as the value of a free Var node id and memoizes it
// directly; callers must separately call Update with id's cone to
// propagate the change. Installing the value and recomputing the cone
// are kept as two explicit steps so the SLS scorer can run between
// them for just the affected roots.
func (c *Context) SetVar(id dag.NodeID, v bitvec.Value) {
	if c.m.Kind(dag.Edge{Node: id}) != dag.KindVar {
		panic("model: SetVar target is not a Var node")
	}
	c.bv[id] = v
}

// eval returns the memoized or freshly computed value of the
// non-inverted edge to id.
func (c *Context) eval(id dag.NodeID) bitvec.Value {
	if v, ok := c.bv[id]; ok {
		return v
	}
	e := dag.Edge{Node: id}
	kind := c.m.Kind(e)
	var v bitvec.Value

	switch kind {
	case dag.KindConst:
		v, _ = c.m.ConstValue(e)
	case dag.KindVar, dag.KindUF, dag.KindParam:
		v = bitvec.New(c.m.Sort(e).Width)
	case dag.KindSlice:
		hi, lo := c.m.SliceBounds(e)
		children := c.m.Children(e)
		v = c.Value(children[0]).Slice(hi, lo)
	case dag.KindAnd:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).And(c.Value(ch[1]))
	case dag.KindEq:
		ch := c.m.Children(e)
		v = boolVal(bitvec.Eq(c.Value(ch[0]), c.Value(ch[1])))
	case dag.KindFunEq:
		ch := c.m.Children(e)
		v = boolVal(c.Value(ch[0]).Uint64() == c.Value(ch[1]).Uint64())
	case dag.KindUlt:
		ch := c.m.Children(e)
		v = boolVal(bitvec.Ult(c.Value(ch[0]), c.Value(ch[1])))
	case dag.KindAdd:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).Add(c.Value(ch[1]))
	case dag.KindMul:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).Mul(c.Value(ch[1]))
	case dag.KindShl:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).Shl(c.Value(ch[1]))
	case dag.KindLshr:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).Lshr(c.Value(ch[1]))
	case dag.KindUdiv:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).Udiv(c.Value(ch[1]))
	case dag.KindUrem:
		ch := c.m.Children(e)
		v = c.Value(ch[0]).Urem(c.Value(ch[1]))
	case dag.KindConcat:
		ch := c.m.Children(e)
		v = bitvec.Concat(c.Value(ch[0]), c.Value(ch[1]))
	case dag.KindCond:
		ch := c.m.Children(e)
		if c.Bool(ch[0]) {
			v = c.Value(ch[1])
		} else {
			v = c.Value(ch[2])
		}
	case dag.KindApply:
		v = c.evalApply(e)
	case dag.KindArgs:
		v = c.evalArgsTuple(e)
	case dag.KindLambda:
		// A lambda with no argument applied has no scalar value; callers
		// evaluate it only through Apply. Degenerate eval for
		// completeness returns the body's value under its own default
		// parameter assignment, since nothing in this theory compares
		// two unapplied lambdas by value.
		ch := c.m.Children(e)
		v = c.Value(ch[1])
	default:
		panic(fmt.Errorf("model: unhandled node kind %v", kind))
	}

	c.bv[id] = v
	return v
}

func boolVal(b bool) bitvec.Value {
	if b {
		return bitvec.One(1)
	}
	return bitvec.New(1)
}

// evalArgsTuple concatenates an Args node's evaluated children,
// high-to-low in argument order, giving every tuple a single flat
// bit-vector encoding usable as a function-model table key.
func (c *Context) evalArgsTuple(e dag.Edge) bitvec.Value {
	ch := c.m.Children(e)
	vs := make([]bitvec.Value, len(ch))
	for i, cc := range ch {
		vs[i] = c.Value(cc)
	}
	out := vs[0]
	for _, v := range vs[1:] {
		out = bitvec.Concat(out, v)
	}
	return out
}

// evalApply looks up (or invents) the tabulated value of fn applied to
// args.
func (c *Context) evalApply(e dag.Edge) bitvec.Value {
	ch := c.m.Children(e)
	fn, args := ch[0], ch[1]
	key := keyOf(c.Value(args))

	table, ok := c.fun[fn.Node]
	if !ok {
		table = make(map[argsKey]bitvec.Value)
		c.fun[fn.Node] = table
	}
	if v, ok := table[key]; ok {
		return v
	}

	codomain := c.m.Sort(e)
	var v bitvec.Value
	if c.freshFunValue != nil {
		v = c.freshFunValue(fn.Node, key, codomain)
	} else {
		v = bitvec.New(codomain.Width)
	}
	table[key] = v
	return v
}

// Cone computes all ancestors of the nodes in ids, deduplicated,
// reachable through parent lists.
func Cone(m *dag.Manager, ids []dag.NodeID) []dag.NodeID {
	seen := make(map[dag.NodeID]bool)
	var out []dag.NodeID
	var walk func(dag.NodeID)
	walk = func(id dag.NodeID) {
		for _, p := range m.Parents(id) {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			walk(p)
		}
	}
	for _, id := range ids {
		walk(id)
	}
	return out
}

// Scorer is the SLS scoring collaborator the cone-update procedure asks
// to recompute Boolean-node scores after re-evaluation. Implemented by
// package sls; declared here to avoid a model→sls import cycle (sls
// depends on model, not the reverse).
type Scorer interface {
	Recompute(ids []dag.NodeID)
}

// Update re-evaluates the cone of the changed variable ids in ascending
// NodeID order (a valid topological order since child ids are always
// allocated before the parents that reference them), installs new
// values, asks scorer (if non-nil) to recompute Boolean scores over
// that same cone, and returns the cone in evaluation order so the
// caller can update its violated-roots set against whichever of those
// nodes are Bool-sorted roots.
func (c *Context) Update(ids []dag.NodeID, scorer Scorer) []dag.NodeID {
	cone := Cone(c.m, ids)
	sort.Slice(cone, func(i, j int) bool { return cone[i] < cone[j] })

	for _, id := range cone {
		delete(c.bv, id)
	}
	for _, id := range cone {
		c.eval(id)
	}
	if scorer != nil {
		scorer.Recompute(cone)
	}
	return cone
}
