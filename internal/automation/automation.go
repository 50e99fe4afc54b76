package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/config"
	"github.com/san-kum/velcmd/internal/metrics"
	"github.com/san-kum/velcmd/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of batch runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from Preset ("robot[/variant]") or Config (a yaml
// path), then applies the overrides. Zero overrides keep the base value.
type ScenarioStep struct {
	Preset string             `yaml:"preset"`
	Config string             `yaml:"config"`
	Agents int                `yaml:"agents"`
	Steps  int                `yaml:"steps"`
	Seed   uint64             `yaml:"seed"`
	Params map[string]float64 `yaml:"params"`
	SaveAs string             `yaml:"save_as"`
}

// StepResult reports one finished step. RunID is empty when no store is used.
type StepResult struct {
	Name      string
	RunID     string
	Ticks     int
	Summaries map[string]metrics.Summary
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %s has no steps", batch.ErrConfiguration, path)
	}
	return &scenario, nil
}

// Resolve builds the step's config.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case s.Preset != "" && s.Config != "":
		return nil, fmt.Errorf("%w: step sets both preset and config", batch.ErrConfiguration)
	case s.Config != "":
		cfg, err = config.Load(s.Config)
	case s.Preset != "":
		cfg, err = config.ParsePreset(s.Preset)
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if s.Agents > 0 {
		cfg.NumAgents = s.Agents
	}
	if s.Steps > 0 {
		cfg.Steps = s.Steps
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	for name, v := range s.Params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far. st may be nil to skip storage.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", cfg.Name),
		)

		simulator, diags, err := cfg.Build(cfg.Seed)
		if err != nil {
			return results, fmt.Errorf("step %d build: %w", i+1, err)
		}
		for _, d := range diags {
			logger.Warn("command configuration advisory", zap.Int("step", i+1), zap.String("code", d.Code))
		}

		res, err := simulator.Run(ctx, cfg.Steps)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Name: cfg.Name, Ticks: res.Ticks, Summaries: res.Summaries}
		if st != nil {
			if out.RunID, err = st.Save(cfg, cfg.Seed, diags, res); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, out)
	}

	return results, nil
}
