package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/command"
	"github.com/san-kum/velcmd/internal/sim"
)

// Robot tasks share sim settings of 200 Hz physics with decimation 4.
var robotSim = sim.Config{Dt: 0.005 * 4, EpisodeLength: 20, SampleEvery: 10}

var identityFrame = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func vehicle(play bool) *Config {
	cmd := command.Config{
		ReferenceBody:       "leg1link4",
		ResampleInterval:    batch.Range{Min: 10, Max: 10},
		HeadingCommand:      true,
		HeadingProbability:  1.0,
		StandingProbability: 0.02,
		HeadingGain:         0.5,
		Dt:                  robotSim.Dt,
		DebugVis:            true,
		Ranges: command.Ranges{
			LinVelX: batch.Range{Min: 0.5, Max: 0.5},
			LinVelY: batch.Range{Min: -0.5, Max: 0.5},
			AngVelZ: batch.Range{Min: 0, Max: 0},
			Heading: &batch.Range{Min: 0, Max: 0},
		},
	}
	cfg := &Config{Name: "vehicle", NumAgents: 4096, Seed: DefaultSeed, Steps: 3000,
		Sim: robotSim, Plant: sim.DefaultPlantConfig(), Command: cmd}
	if play {
		cfg.Name, cfg.NumAgents, cfg.Steps = "vehicle_play", 50, 1000
		cfg.Command.Ranges.LinVelX = batch.Range{Min: 0.1, Max: 0.1}
		cfg.Command.Ranges.LinVelY = batch.Range{}
		cfg.Plant.Noise = 0
	}
	return cfg
}

func heroDragon(play bool) *Config {
	cmd := command.Config{
		ReferenceBody:       "leg4link4",
		ResampleInterval:    batch.Range{Min: 5, Max: 15},
		HeadingCommand:      false,
		HeadingProbability:  1.0,
		StandingProbability: 0.02,
		HeadingGain:         0.5,
		Dt:                  robotSim.Dt,
		DebugVis:            true,
		Ranges: command.Ranges{
			LinVelX: batch.Range{Min: -0.12, Max: 0.12},
			LinVelY: batch.Range{},
			AngVelZ: batch.Range{Min: -math.Pi / 12, Max: math.Pi / 12},
			Heading: &batch.Range{Min: -math.Pi, Max: math.Pi},
		},
	}
	cfg := &Config{Name: "hero_dragon", NumAgents: 4096, Seed: DefaultSeed, Steps: 3000,
		Sim: robotSim, Plant: sim.PlantConfig{Tau: 0.25, Noise: 0.01}, Command: cmd,
		Frames: map[string][3][3]float64{"leg4link4": identityFrame}}
	if play {
		cfg.Name, cfg.NumAgents, cfg.Steps = "hero_dragon_play", 50, 1000
		cfg.Command.Ranges.LinVelX = batch.Range{Min: 0.1, Max: 0.1}
		cfg.Command.Ranges.AngVelZ = batch.Range{}
		cfg.Command.Ranges.Heading = &batch.Range{}
		cfg.Plant.Noise = 0
	}
	return cfg
}

// Presets maps robot -> variant -> constructor. Constructors return a fresh
// copy so callers may edit the result.
var Presets = map[string]map[string]func() *Config{
	"vehicle": {
		"train": func() *Config { return vehicle(false) },
		"play":  func() *Config { return vehicle(true) },
	},
	"hero_dragon": {
		"train": func() *Config { return heroDragon(false) },
		"play":  func() *Config { return heroDragon(true) },
	},
}

func GetPreset(robot, variant string) *Config {
	robotPresets, ok := Presets[robot]
	if !ok {
		return nil
	}
	build, ok := robotPresets[variant]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets(robot string) []string {
	robotPresets, ok := Presets[robot]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(robotPresets))
	for name := range robotPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListRobots() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePreset resolves "robot" or "robot/variant"; the variant defaults to
// train.
func ParsePreset(name string) (*Config, error) {
	robot, variant, ok := strings.Cut(name, "/")
	if !ok {
		variant = "train"
	}
	cfg := GetPreset(robot, variant)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %s (robots: %v)", batch.ErrConfiguration, name, ListRobots())
	}
	return cfg, nil
}
