package propagate

import (
	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
	"github.com/gitrdm/bvprop/model"
)

// Result is the driver's output on success: the
// variable to flip and the value to flip it to.
type Result struct {
	Var dag.NodeID
	Value bitvec.Value
	Steps int
}

// Driver walks down a violated Boolean root toward a free variable,
// computing at each step the value that would make the current node's
// parent true. It never allocates a DAG node; all work
// is on bit-vector values and statistics counters, returning a result
// or failure without mutating shared state mid-computation.
type Driver struct {
	m *dag.Manager
	ctx *model.Context
	opts *Options

	Stats Stats
}

// Stats counts the driver's recoverable/non-recoverable outcomes, read
// by package solver to populate its externally visible statistics.
type Stats struct {
	Steps int
	RecoverableConflict int
	NonRecoverableFail int
}

// NewDriver returns a Driver operating over m/ctx with the given
// options (shared with SelectPath/Inverse/Consistent).
func NewDriver(m *dag.Manager, ctx *model.Context, opts *Options) *Driver {
	return &Driver{m: m, ctx: ctx, opts: opts}
}

// Propagate descends from root (a Boolean edge currently evaluating to
// false) toward a variable, returning the flip to apply or false if the
// descent hit a non-recoverable conflict.
func (d *Driver) Propagate(root dag.Edge) (Result, bool) {
	cur := root
	bvcur := bitvec.One(1) // we want root to become true
	steps := 0

	for {
		if cur.Inverted {
			bvcur = bvcur.Not()
			cur = cur.Pos()
		}

		kind := d.m.Kind(cur)
		if kind == dag.KindVar {
			steps++
			d.Stats.Steps += steps
			return Result{Var: cur.Node, Value: bvcur, Steps: steps}, true
		}
		if kind == dag.KindConst {
			d.Stats.NonRecoverableFail++
			return Result{}, false
		}

		steps++
		eidx := SelectPath(d.m, d.ctx, cur, bvcur, d.opts)
		children := d.m.Children(cur)

		next, newVal, conflict := d.step(kind, cur, children, eidx, bvcur)
		switch conflict {
		case ConflictNonRecoverable:
			d.Stats.NonRecoverableFail++
			return Result{}, false
		case ConflictRecoverable:
			d.Stats.RecoverableConflict++
			// Retry once against the other child before giving up this
			// descent entirely, since a recoverable conflict is
			// contingent on the side chosen, not on the operator.
			other := 1 - eidx
			if other < 0 || other >= len(children) || kind == dag.KindCond || kind == dag.KindSlice {
				d.Stats.NonRecoverableFail++
				return Result{}, false
			}
			next, newVal, conflict = d.step(kind, cur, children, other, bvcur)
			if conflict != ConflictNone {
				d.Stats.NonRecoverableFail++
				return Result{}, false
			}
		}

		cur = next
		bvcur = newVal
	}
}

// step computes the single-level propagation for kind(children) at
// child index eidx toward target bvcur, returning the next edge to
// descend into and its target value.
func (d *Driver) step(kind dag.Kind, node dag.Edge, children []dag.Edge, eidx int, bvcur bitvec.Value) (dag.Edge, bitvec.Value, ConflictKind) {
	if kind == dag.KindCond {
		return d.stepCond(node, children, eidx, bvcur)
	}
	if kind == dag.KindSlice {
		hi, lo := d.m.SliceBounds(node)
		full := children[0]
		outcome := d.compute(InverseInput{
			Kind: kind, EIdx: 0, Bvop: bvcur,
			SliceHi: hi, SliceLo: lo,
			FullWidth: d.m.Width(full),
			PriorX: d.ctx.Value(full),
		}, ConsistentInput{Kind: kind, Width: d.m.Width(full)})
		return full, outcome.Value, outcome.Conflict
	}

	other := children[1-eidx]
	target := children[eidx]
	bve := d.ctx.Value(other)

	in := InverseInput{Kind: kind, EIdx: eidx, Bvop: bvcur, Bve: bve}
	cin := ConsistentInput{Kind: kind, EIdx: eidx, Bvop: bvcur, Width: d.m.Width(target)}
	if kind == dag.KindShl || kind == dag.KindLshr {
		if eidx == 1 {
			cin.ShiftAmountWidth = d.m.Width(target)
			in.ShiftAmountWidth = d.m.Width(target)
		}
	}

	outcome := d.compute(in, cin)
	return target, outcome.Value, outcome.Conflict
}

// compute runs Inverse with probability opts.UseInv, else Consistent; a
// recoverable conflict from Inverse is counted in Stats and falls back
// to Consistent, which never itself conflicts.
func (d *Driver) compute(in InverseInput, cin ConsistentInput) Outcome {
	if d.opts.Rng.Float64() < d.opts.UseInv {
		out := Inverse(in, d.opts)
		if out.Conflict == ConflictRecoverable {
			d.Stats.RecoverableConflict++
			return Ok(Consistent(cin, d.opts))
		}
		return out
	}
	return Ok(Consistent(cin, d.opts))
}

func (d *Driver) stepCond(node dag.Edge, children []dag.Edge, eidx int, bvcur bitvec.Value) (dag.Edge, bitvec.Value, ConflictKind) {
	switch eidx {
	case 0:
		condVal := d.ctx.Bool(children[0])
		return children[0], boolValue(!condVal), ConflictNone
	case 1:
		return children[1], bvcur, ConflictNone
	default:
		return children[2], bvcur, ConflictNone
	}
}

func boolValue(b bool) bitvec.Value {
	if b {
		return bitvec.One(1)
	}
	return bitvec.New(1)
}
