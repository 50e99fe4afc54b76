package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/velcmd/internal/config"
)

// SimulationObjective scores a parameter set by running base with the
// parameters applied and returning the batch mean of metric.
func SimulationObjective(base *config.Config, metric string) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return 0, err
			}
		}
		s, _, err := cfg.Build(cfg.Seed)
		if err != nil {
			return 0, err
		}
		res, err := s.Run(ctx, cfg.Steps)
		if err != nil {
			return 0, err
		}
		summary, ok := res.Summaries[metric]
		if !ok {
			return 0, fmt.Errorf("no metric %q in result", metric)
		}
		return summary.Mean, nil
	}
}
