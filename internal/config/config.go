package config

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/san-kum/velcmd/internal/command"
	"github.com/san-kum/velcmd/internal/sim"
	"github.com/san-kum/velcmd/internal/spatial"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAgents = 4096
	DefaultSeed   = 42
	DefaultSteps  = 1000
)

// Config is one complete run description as stored in YAML.
type Config struct {
	Name      string                   `yaml:"name"`
	NumAgents int                      `yaml:"num_envs"`
	Seed      uint64                   `yaml:"seed"`
	Steps     int                      `yaml:"steps"`
	Sim       sim.Config               `yaml:"sim"`
	Plant     sim.PlantConfig          `yaml:"plant"`
	Command   command.Config           `yaml:"command"`
	Frames    map[string][3][3]float64 `yaml:"frames,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "default",
		NumAgents: DefaultAgents,
		Seed:      DefaultSeed,
		Steps:     DefaultSteps,
		Sim:       sim.DefaultConfig(),
		Plant:     sim.DefaultPlantConfig(),
		Command:   command.DefaultConfig(),
	}
}

// Load reads path over the defaults, so a file only needs the fields it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FrameTable returns the built-in corrections extended by cfg.Frames.
func (c *Config) FrameTable() (*spatial.FrameTable, error) {
	return spatial.NewFrameTable(c.Frames)
}

// Build wires a generator and plant into a simulator for seed. The returned
// diagnostics come from generator construction and are never fatal.
func (c *Config) Build(seed uint64) (*sim.Simulator, command.Diagnostics, error) {
	table, err := c.FrameTable()
	if err != nil {
		return nil, nil, err
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	gen, diags, err := command.New(c.Command, c.NumAgents, table, src)
	if err != nil {
		return nil, nil, err
	}
	res, err := table.Resolver(c.Command.ReferenceBody)
	if err != nil {
		return nil, nil, err
	}
	plant, err := sim.NewPlant(c.NumAgents, res, c.Plant, src)
	if err != nil {
		return nil, nil, err
	}
	s, err := sim.New(gen, plant, c.Sim)
	if err != nil {
		return nil, nil, err
	}
	return s, diags, nil
}
