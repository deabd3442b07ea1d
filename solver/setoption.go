package solver

import (
	"fmt"

	bvprop "github.com/gitrdm/bvprop"
)

// SetOption implements a string-keyed option surface for embedders (a
// CLI/parser, out of this module's scope) that read option
// assignments from text rather than setting Options fields directly.
// value's expected Go type: string for ENGINE and PROP_PATH_SEL, bool
// for PROP_NO_MOVE_ON_CONFLICT and SORT_EXP, and int or int64 for every
// other key (SEED must be non-negative).
func (s *Solver) SetOption(key string, value any) error {
	o := s.opts
	switch key {
	case "ENGINE":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: ENGINE expects a string", bvprop.ErrBadOption)
		}
		switch str {
		case "PROP":
			o.Engine = EngineProp
		case "SLS":
			o.Engine = EngineSLS
		case "BB":
			o.Engine = EngineBB
		default:
			return fmt.Errorf("%w: ENGINE=%q not in {PROP,SLS,BB}", bvprop.ErrBadOption, str)
		}
	case "SEED":
		u, err := asUint32(value)
		if err != nil {
			return err
		}
		o.Seed = u
	case "PROP_PATH_SEL":
		str, _ := value.(string)
		switch str {
		case "ESSENTIAL":
			o.PathSel = PathSelEssential
		case "RANDOM":
			o.PathSel = PathSelRandom
		default:
			return fmt.Errorf("%w: PROP_PATH_SEL=%q not in {ESSENTIAL,RANDOM}", bvprop.ErrBadOption, str)
		}
	case "PROP_PROB_USE_INV":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbUseInv = v
	case "PROP_PROB_AND_FLIP":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbAndFlip = v
	case "PROP_PROB_EQ_FLIP":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbEqFlip = v
	case "PROP_PROB_CONC_FLIP":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbConcFlip = v
	case "PROP_PROB_SLICE_FLIP":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbSliceFlip = v
	case "PROP_PROB_SLICE_KEEP_DC":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbSliceKeepDC = v
	case "PROP_PROB_FLIP_COND":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbFlipCond = v
	case "PROP_PROB_FLIP_COND_CONST":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.ProbFlipCondConst = v
	case "PROP_FLIP_COND_CONST_NPATHSEL":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.FlipCondConstNPathSel = v
	case "PROP_NO_MOVE_ON_CONFLICT":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: PROP_NO_MOVE_ON_CONFLICT expects a bool", bvprop.ErrBadOption)
		}
		o.NoMoveOnConflict = b
	case "SORT_EXP":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: SORT_EXP expects a bool", bvprop.ErrBadOption)
		}
		o.SortExp = b
	case "REWRITE_LEVEL":
		v, err := asInt(value)
		if err != nil {
			return err
		}
		o.RewriteLevel = v
	default:
		return fmt.Errorf("%w: unknown option %q", bvprop.ErrBadOption, key)
	}

	if err := o.Validate(); err != nil {
		return err
	}
	s.opts = o
	s.Dag.SortExp = o.SortExp
	s.propts.Mode = propagateMode(o.PathSel)
	s.propts.UseInv = float64(o.ProbUseInv) / 1000
	s.propts.KeepBits = float64(o.ProbSliceKeepDC) / 1000
	s.propts.PFlipCond = float64(o.ProbFlipCond) / 1000
	s.propts.PFlipCondConst = float64(o.ProbFlipCondConst) / 1000
	return nil
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: expected an int, got %T", bvprop.ErrBadOption, value)
	}
}

func asUint32(value any) (uint32, error) {
	v, err := asInt(value)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: SEED must be non-negative", bvprop.ErrBadOption)
	}
	return uint32(v), nil
}
