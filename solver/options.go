package solver

import (
	"fmt"

	bvprop "github.com/gitrdm/bvprop"
)

// Engine selects which decision procedure check_sat runs.
type Engine int

const (
	// EngineProp is the propagation-based local-search engine this
	// module implements in full. PROP and SLS are kept as separate
	// enumerators for compatibility with callers that distinguish them,
	// but both select the same Driver here.
	EngineProp Engine = iota
	EngineSLS
	// EngineBB is the bit-blasting alternative, explicitly out of
	// scope; selecting it is a fatal option
	// error rather than a silent no-op.
	EngineBB
)

func (e Engine) String() string {
	switch e {
	case EngineProp:
		return "PROP"
	case EngineSLS:
		return "SLS"
	case EngineBB:
		return "BB"
	default:
		return "?"
	}
}

// PathSelMode mirrors propagate.Mode at the option-surface level.
type PathSelMode int

const (
	PathSelEssential PathSelMode = iota
	PathSelRandom
)

// Options is the full enumerated option set, following the
// SolverConfig iota-enum convention (fd.go): a flat struct of named
// knobs constructed once via DefaultOptions and adjusted field-by-field
// or through SetOption's string-keyed surface.
type Options struct {
	Engine Engine
	Seed uint32

	PathSel PathSelMode

	// Per-mille probabilities.
	ProbUseInv int
	ProbAndFlip int
	ProbEqFlip int
	ProbConcFlip int
	ProbSliceFlip int
	ProbSliceKeepDC int
	ProbFlipCond int
	ProbFlipCondConst int
	FlipCondConstNPathSel int

	NoMoveOnConflict bool
	SortExp bool
	RewriteLevel int

	// MaxMoves bounds a single check_sat call's move budget; not named
	// in the option table, which otherwise enumerates only the
	// per-operator probabilities, but required for check_sat to ever
	// return UNKNOWN rather than loop forever.
	MaxMoves int
}

// DefaultOptions mirrors the DefaultSolverConfig pattern: reasonable
// defaults for every field, matching the conservative choices recorded
// in DESIGN.md for the open design questions this module had to decide
// (no-restart-by-default, essential path selection).
func DefaultOptions() Options {
	return Options{
		Engine: EngineProp,
		Seed: 1,
		PathSel: PathSelEssential,
		ProbUseInv: 900,
		ProbAndFlip: 500,
		ProbEqFlip: 500,
		ProbConcFlip: 500,
		ProbSliceFlip: 500,
		ProbSliceKeepDC: 500,
		ProbFlipCond: 50,
		ProbFlipCondConst: 500,
		FlipCondConstNPathSel: 1,
		NoMoveOnConflict: true,
		SortExp: true,
		RewriteLevel: 1,
		MaxMoves: 100000,
	}
}

func perMille(name string, v int) error {
	if v < 0 || v > 1000 {
		return fmt.Errorf("%w: %s=%d outside [0,1000]", bvprop.ErrBadOption, name, v)
	}
	return nil
}

// Validate checks the per-mille range rule on every probability field
// and returns a wrapped ErrBadOption on the first violation, which
// callers are expected to treat as a fatal precondition error.
func (o Options) Validate() error {
	if o.Engine == EngineBB {
		return fmt.Errorf("%w: ENGINE=BB (bit-blasting) is not implemented by this core", bvprop.ErrBadOption)
	}
	fields := []struct {
		name string
		v int
	}{
		{"PROP_PROB_USE_INV", o.ProbUseInv},
		{"PROP_PROB_AND_FLIP", o.ProbAndFlip},
		{"PROP_PROB_EQ_FLIP", o.ProbEqFlip},
		{"PROP_PROB_CONC_FLIP", o.ProbConcFlip},
		{"PROP_PROB_SLICE_FLIP", o.ProbSliceFlip},
		{"PROP_PROB_SLICE_KEEP_DC", o.ProbSliceKeepDC},
		{"PROP_PROB_FLIP_COND", o.ProbFlipCond},
		{"PROP_PROB_FLIP_COND_CONST", o.ProbFlipCondConst},
	}
	for _, f := range fields {
		if err := perMille(f.name, f.v); err != nil {
			return err
		}
	}
	if o.RewriteLevel < 0 || o.RewriteLevel > 3 {
		return fmt.Errorf("%w: REWRITE_LEVEL=%d outside [0,3]", bvprop.ErrBadOption, o.RewriteLevel)
	}
	return nil
}
