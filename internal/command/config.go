package command

import (
	"fmt"
	"math"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/spatial"
)

// Ranges bounds every sampled quantity. Heading is nil when no heading
// range is configured.
type Ranges struct {
	LinVelX batch.Range  `yaml:"lin_vel_x" json:"lin_vel_x"`
	LinVelY batch.Range  `yaml:"lin_vel_y" json:"lin_vel_y"`
	AngVelZ batch.Range  `yaml:"ang_vel_z" json:"ang_vel_z"`
	Heading *batch.Range `yaml:"heading,omitempty" json:"heading,omitempty"`
}

// Config is loaded once and validated when the generator is built.
type Config struct {
	ReferenceBody       string      `yaml:"reference_body" json:"reference_body"`
	ResampleInterval    batch.Range `yaml:"resampling_time_range" json:"resampling_time_range"`
	HeadingCommand      bool        `yaml:"heading_command" json:"heading_command"`
	HeadingProbability  float64     `yaml:"rel_heading_envs" json:"rel_heading_envs"`
	StandingProbability float64     `yaml:"rel_standing_envs" json:"rel_standing_envs"`
	HeadingGain         float64     `yaml:"heading_control_stiffness" json:"heading_control_stiffness"`
	Dt                  float64     `yaml:"step_dt" json:"step_dt"`
	DebugVis            bool        `yaml:"debug_vis" json:"debug_vis"`
	Ranges              Ranges      `yaml:"ranges" json:"ranges"`
}

func DefaultConfig() Config {
	return Config{
		ReferenceBody:       "base",
		ResampleInterval:    batch.Range{Min: 10, Max: 10},
		HeadingCommand:      true,
		HeadingProbability:  1.0,
		StandingProbability: 0.02,
		HeadingGain:         0.5,
		Dt:                  0.02,
		Ranges: Ranges{
			LinVelX: batch.Range{Min: -1, Max: 1},
			LinVelY: batch.Range{Min: -1, Max: 1},
			AngVelZ: batch.Range{Min: -1, Max: 1},
			Heading: &batch.Range{Min: -math.Pi, Max: math.Pi},
		},
	}
}

// Advisory is a non-fatal construction finding surfaced once to the caller.
type Advisory struct {
	Code    string
	Message string
}

func (a Advisory) String() string { return a.Code + ": " + a.Message }

type Diagnostics []Advisory

const AdvisoryHeadingRangeUnused = "heading_range_unused"

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{batch.ErrConfiguration}, args...)...)
}

func checkRange(name string, r batch.Range) error {
	if !r.Valid() || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return configErr("range %s %v must be finite with min <= max", name, r)
	}
	return nil
}

func checkProbability(name string, p float64) error {
	if !(p >= 0 && p <= 1) {
		return configErr("%s %g not in [0, 1]", name, p)
	}
	return nil
}

// Validate checks c against table and returns advisories for suspicious but
// legal combinations.
func (c Config) Validate(table *spatial.FrameTable) (Diagnostics, error) {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return nil, configErr("step dt must be positive, got %g", c.Dt)
	}
	if err := checkRange("resampling_time_range", c.ResampleInterval); err != nil {
		return nil, err
	}
	if c.ResampleInterval.Min < 0 || c.ResampleInterval.Max <= 0 {
		return nil, configErr("resampling_time_range %v must be non-negative with a positive max", c.ResampleInterval)
	}
	for _, r := range []struct {
		name string
		r    batch.Range
	}{
		{"lin_vel_x", c.Ranges.LinVelX},
		{"lin_vel_y", c.Ranges.LinVelY},
		{"ang_vel_z", c.Ranges.AngVelZ},
	} {
		if err := checkRange(r.name, r.r); err != nil {
			return nil, err
		}
	}
	if c.HeadingCommand && c.Ranges.Heading == nil {
		return nil, configErr("heading commands are active (heading_command=true) but ranges.heading is not set")
	}
	if c.Ranges.Heading != nil {
		if err := checkRange("heading", *c.Ranges.Heading); err != nil {
			return nil, err
		}
	}
	if err := checkProbability("rel_heading_envs", c.HeadingProbability); err != nil {
		return nil, err
	}
	if err := checkProbability("rel_standing_envs", c.StandingProbability); err != nil {
		return nil, err
	}
	if math.IsNaN(c.HeadingGain) || math.IsInf(c.HeadingGain, 0) {
		return nil, configErr("heading_control_stiffness must be finite, got %g", c.HeadingGain)
	}
	if _, err := table.Lookup(c.ReferenceBody); err != nil {
		return nil, err
	}

	var diags Diagnostics
	if c.Ranges.Heading != nil && !c.HeadingCommand {
		msg := fmt.Sprintf("ranges.heading is set to %v but heading commands are not active; "+
			"set heading_command=true to use it", *c.Ranges.Heading)
		diags = append(diags, Advisory{Code: AdvisoryHeadingRangeUnused, Message: msg})
	}
	return diags, nil
}
