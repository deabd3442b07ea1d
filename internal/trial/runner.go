package trial

import (
	"context"
	"sync"

	"github.com/gitrdm/bvprop/solver"
)

// Build constructs one solver instance's variables and assertions. It
// receives a fresh, empty Solver seeded per Outcome.Seed and returns an
// error only for setup mistakes (a bad sort, a rejected option) — never
// to report SAT/UNSAT, which Outcome.Status already carries.
type Build func(s *solver.Solver) error

// Outcome is one trial's result: the seed it ran with, the result
// status, and the move/conflict/restart counters a caller checks
// monotonicity and move-budget properties against.
type Outcome struct {
	Seed uint32
	Status solver.Status
	Stats solver.Stats
	Err error
}

// Run launches n independent trials (opts.Seed overridden per trial by
// seeds[i]) across a Pool of the given worker count, each building its
// formula via build and calling CheckSat exactly once. Every trial
// allocates and owns its own *solver.Solver; none is shared across
// goroutines.
func Run(ctx context.Context, workers int, opts solver.Options, seeds []uint32, build Build) []Outcome {
	results := make([]Outcome, len(seeds))
	p := NewPool(workers)
	defer p.Close()

	var wg sync.WaitGroup
	wg.Add(len(seeds))
	for i, seed := range seeds {
		i, seed := i, seed
		task := func() {
			defer wg.Done()
			results[i] = runOne(opts, seed, build)
		}
		if err := p.Submit(ctx, task); err != nil {
			results[i] = Outcome{Seed: seed, Err: err}
			wg.Done()
			continue
		}
	}
	wg.Wait()
	return results
}

func runOne(opts solver.Options, seed uint32, build Build) Outcome {
	opts.Seed = seed
	s, err := solver.New(opts)
	if err != nil {
		return Outcome{Seed: seed, Err: err}
	}
	defer s.Delete()

	if err := build(s); err != nil {
		return Outcome{Seed: seed, Err: err}
	}
	status := s.CheckSat()
	return Outcome{Seed: seed, Status: status, Stats: s.Stats()}
}
