package config

import (
	"fmt"
	"maps"
	"sort"

	"github.com/san-kum/velcmd/internal/batch"
)

// tunables maps sweepable parameter names to their fields.
var tunables = map[string]func(c *Config) *float64{
	"heading_control_stiffness": func(c *Config) *float64 { return &c.Command.HeadingGain },
	"rel_standing_envs":         func(c *Config) *float64 { return &c.Command.StandingProbability },
	"rel_heading_envs":          func(c *Config) *float64 { return &c.Command.HeadingProbability },
	"lin_vel_x.min":             func(c *Config) *float64 { return &c.Command.Ranges.LinVelX.Min },
	"lin_vel_x.max":             func(c *Config) *float64 { return &c.Command.Ranges.LinVelX.Max },
	"ang_vel_z.min":             func(c *Config) *float64 { return &c.Command.Ranges.AngVelZ.Min },
	"ang_vel_z.max":             func(c *Config) *float64 { return &c.Command.Ranges.AngVelZ.Max },
	"plant.tau":                 func(c *Config) *float64 { return &c.Plant.Tau },
	"plant.noise":               func(c *Config) *float64 { return &c.Plant.Noise },
}

func ParamNames() []string {
	names := make([]string, 0, len(tunables))
	for name := range tunables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam assigns one tunable. Values are validated when the config is built.
func (c *Config) SetParam(name string, value float64) error {
	field, ok := tunables[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", batch.ErrConfiguration, name, ParamNames())
	}
	*field(c) = value
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if h := c.Command.Ranges.Heading; h != nil {
		hc := *h
		out.Command.Ranges.Heading = &hc
	}
	out.Frames = maps.Clone(c.Frames)
	return &out
}
