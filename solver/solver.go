// Package solver ties the expression DAG, model layer, SLS scorer, and
// propagation driver into a single-threaded, synchronous instance: one
// Solver owns all its state exclusively, check_sat is a plain blocking
// call cooperatively cancellable through a termination hook, and no
// operation may run concurrently with another on the same instance.
//
// Grounded on the Solver/SolverConfig pair (fd.go, solver.go):
// a config struct built once via a Default constructor, a Solver that
// owns its own RNG and statistics, and a Propagate-style inner loop that
// reports outcomes through return values rather than panics.
package solver

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	bvprop "github.com/gitrdm/bvprop"
	"github.com/gitrdm/bvprop/bitvec"
	"github.com/gitrdm/bvprop/dag"
	"github.com/gitrdm/bvprop/model"
	"github.com/gitrdm/bvprop/propagate"
	"github.com/gitrdm/bvprop/sls"
)

// Status is check_sat's return value.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

// TerminationHook is polled once per move; the default
// always returns false.
type TerminationHook func() bool

// Stats is a statistics snapshot, readable mid-solve, not just as a
// final result.
type Stats struct {
	Moves int
	RecoverableConflict int
	NonRecoverableFail int
	Restarts int
}

// Solver is one QF_AUFBV propagation/SLS solver instance.
type Solver struct {
	Dag *dag.Manager

	opts Options
	log *log.Logger
	simp dag.Simplifier
	terminate TerminationHook
	rng *rand.Rand

	ctx *model.Context
	scorer *sls.Scorer
	driver *propagate.Driver
	propts *propagate.Options

	vars []dag.NodeID
	roots []dag.Edge

	forcedUnsat bool
	lastStatus Status

	stats Stats
}

// New returns a solver with the given options (validated eagerly, since
// a bad option is a fatal precondition error), a default IdentitySimplifier,
// a no-op termination hook, and a logger writing to os.Stderr — matching
// the established pattern of injecting collaborators at construction time
// rather than reaching for package-level globals.
func New(opts Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := dag.NewManager()
	m.SortExp = opts.SortExp

	s := &Solver{
		Dag: m,
		opts: opts,
		log: log.New(os.Stderr, "bvprop: ", log.LstdFlags),
		simp: dag.IdentitySimplifier{},
		terminate: func() bool { return false },
		rng: rand.New(rand.NewSource(int64(opts.Seed))),
	}
	s.ctx = model.NewContext(m)
	s.scorer = sls.New(m, s.ctx)
	s.propts = &propagate.Options{
		Mode: propagateMode(opts.PathSel),
		Rng: s.rng,
		UseInv: float64(opts.ProbUseInv) / 1000,
		KeepBits: float64(opts.ProbSliceKeepDC) / 1000,
		PFlipCond: float64(opts.ProbFlipCond) / 1000,
		PFlipCondConst: float64(opts.ProbFlipCondConst) / 1000,
	}
	s.driver = propagate.NewDriver(m, s.ctx, s.propts)
	return s, nil
}

func propagateMode(p PathSelMode) propagate.Mode {
	if p == PathSelRandom {
		return propagate.ModeRandom
	}
	return propagate.ModeEssential
}

// SetLogger overrides the default stderr logger.
func (s *Solver) SetLogger(l *log.Logger) { s.log = l }

// SetSimplifier installs the pluggable external rewrite collaborator
// consulted by AssertFormula; the default is dag.IdentitySimplifier{}.
func (s *Solver) SetSimplifier(simp dag.Simplifier) { s.simp = simp }

// SetTerminationHook installs the cooperative-cancellation hook polled
// once per move inside CheckSat.
func (s *Solver) SetTerminationHook(h TerminationHook) { s.terminate = h }

// Delete releases the solver's DAG references. After Delete the Solver
// must not be used again.
func (s *Solver) Delete() {
	for _, r := range s.roots {
		s.Dag.Release(r)
	}
	for _, v := range s.vars {
		s.Dag.Release(dag.Edge{Node: v})
	}
	s.roots = nil
	s.vars = nil
}

// MkConst, MkVar, MkUF, and MkParam delegate to the DAG manager while
// additionally tracking free variables for CheckSat's initial-assignment
// and restart logic.
func (s *Solver) MkConst(v bitvec.Value) dag.Edge { return s.Dag.MkConst(v) }

func (s *Solver) MkVar(sort *dag.Sort, symbol string) dag.Edge {
	if !sort.IsBitVec() {
		panic(fmt.Errorf("%w: MkVar requires a BitVec sort (Booleans are BitVec(1))", bvprop.ErrSortMismatch))
	}
	e := s.Dag.MkVar(sort, symbol)
	s.vars = append(s.vars, e.Node)
	return e
}

func (s *Solver) MkUF(sort *dag.Sort, symbol string) dag.Edge { return s.Dag.MkUF(sort, symbol) }
func (s *Solver) MkParam(sort *dag.Sort, symbol string) dag.Edge {
	return s.Dag.MkParam(sort, symbol)
}

// AssertFormula adds node (which must be Bool-sorted) as a root to
// satisfy. The simplifier is consulted immediately; if
// it resolves the formula to the constant false, the solver is marked
// permanently UNSAT without ever invoking the propagation engine.
func (s *Solver) AssertFormula(node dag.Edge) error {
	if !s.Dag.Sort(node).IsBool() {
		return fmt.Errorf("%w: assert_formula requires Bool sort", bvprop.ErrSortMismatch)
	}
	simplified := s.simp.Simplify(s.Dag, node)
	if s.Dag.Kind(simplified) == dag.KindConst {
		v, _ := s.Dag.ConstValue(simplified)
		if v.IsFalse() {
			s.forcedUnsat = true
		}
	}
	s.roots = append(s.roots, simplified)
	return nil
}

// randomizeAssignment installs a fresh random value for every tracked
// free variable and recomputes the whole model; used both for the
// initial assignment and for a restart after a non-recoverable conflict.
func (s *Solver) randomizeAssignment() {
	for _, v := range s.vars {
		w := s.Dag.Sort(dag.Edge{Node: v}).Width
		s.ctx.SetVar(v, bitvec.NewRandom(s.rng, w))
	}
	s.ctx.Update(s.vars, s.scorer)
}

// violatedRoot returns a currently-false root, chosen at random among
// the violated ones, or
// false if every root already evaluates true.
func (s *Solver) violatedRoot() (dag.Edge, bool) {
	var violated []dag.Edge
	for _, r := range s.roots {
		if !s.ctx.Bool(r) {
			violated = append(violated, r)
		}
	}
	if len(violated) == 0 {
		return dag.Edge{}, false
	}
	return violated[s.rng.Intn(len(violated))], true
}

// CheckSat runs the propagation/SLS engine until every root holds
// (Sat), or the move budget is spent or the termination hook fires
// (Unknown), whichever comes first. A failed descent does not end the
// call: it is skipped when NoMoveOnConflict is set, and otherwise
// triggers a restart from a fresh random assignment.
func (s *Solver) CheckSat() Status {
	if s.forcedUnsat {
		s.lastStatus = Unsat
		return Unsat
	}
	if len(s.roots) == 0 {
		s.lastStatus = Sat
		return Sat
	}

	s.randomizeAssignment()

	for move := 0; move < s.opts.MaxMoves; move++ {
		if s.terminate() {
			s.lastStatus = Unknown
			return Unknown
		}
		root, ok := s.violatedRoot()
		if !ok {
			s.lastStatus = Sat
			return Sat
		}

		s.stats.Moves++
		result, okProp := s.driver.Propagate(root)
		s.stats.RecoverableConflict = s.driver.Stats.RecoverableConflict
		s.stats.NonRecoverableFail = s.driver.Stats.NonRecoverableFail

		if !okProp {
			if s.opts.NoMoveOnConflict {
				continue
			}
			s.stats.Restarts++
			s.randomizeAssignment()
			continue
		}

		s.ctx.SetVar(result.Var, result.Value)
		s.ctx.Update([]dag.NodeID{result.Var}, s.scorer)
	}

	s.lastStatus = Unknown
	return Unknown
}

// GetValue returns node's current model value; valid only after a SAT
// result.
func (s *Solver) GetValue(node dag.Edge) (bitvec.Value, error) {
	if s.lastStatus != Sat {
		return bitvec.Value{}, fmt.Errorf("bvprop: get_value called before a SAT result")
	}
	return s.ctx.Value(node), nil
}

// Stats returns a snapshot of the move/conflict/restart counters.
func (s *Solver) Stats() Stats { return s.stats }
