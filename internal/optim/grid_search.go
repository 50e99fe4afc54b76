package optim

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sort"

	"github.com/san-kum/velcmd/internal/batch"
	"golang.org/x/sync/errgroup"
)

// Objective scores one parameter assignment; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type Trial struct {
	Params map[string]float64
	Score  float64
}

// GridSearch evaluates every combination of the candidate values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Workers bounds concurrent evaluations.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters with %d value lists", batch.ErrConfiguration, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", batch.ErrConfiguration, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, Workers: runtime.GOMAXPROCS(0)}, nil
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[depth]))
		for _, p := range points {
			for _, v := range g.ranges[depth] {
				q := maps.Clone(p)
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search returns every trial sorted by score, best first. Any objective error
// aborts the search.
func (g *GridSearch) Search(ctx context.Context, obj Objective) ([]Trial, error) {
	points := g.Points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.Workers, 1))
	for i, p := range points {
		eg.Go(func() error {
			score, err := obj(ctx, p)
			if err != nil {
				return fmt.Errorf("params %v: %w", p, err)
			}
			trials[i] = Trial{Params: p, Score: score}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(trials, func(a, b int) bool { return trials[a].Score < trials[b].Score })
	return trials, nil
}
