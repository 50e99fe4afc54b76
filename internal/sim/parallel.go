package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Factory builds an independent simulator for one ensemble member.
type Factory func(seed uint64) (*Simulator, error)

// Ensemble runs independent batches with consecutive seeds concurrently.
type Ensemble struct {
	build     Factory
	numRuns   int
	seedStart uint64
}

func NewEnsemble(build Factory, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per member in seed order. The first error cancels
// the remaining members.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		seed := e.seedStart + uint64(i)
		g.Go(func() error {
			s, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			res, err := s.Run(ctx, steps)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[seed-e.seedStart] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
