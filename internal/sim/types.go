package sim

import (
	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/metrics"
)

// Frame is the read-only view handed to observers after every tick.
// Slices alias simulator buffers and are only valid during OnStep.
type Frame struct {
	Tick     int
	Time     float64
	Snapshot batch.Snapshot
	Commands []batch.Command
	ErrorXY  []float64
	ErrorYaw []float64
}

type Observer interface {
	OnStep(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnStep(f Frame) { fn(f) }

type Config struct {
	Dt            float64 `yaml:"dt" json:"dt"`
	EpisodeLength float64 `yaml:"episode_length_s" json:"episode_length_s"`
	SampleEvery   int     `yaml:"sample_every" json:"sample_every"`
}

func DefaultConfig() Config {
	return Config{Dt: 0.02, EpisodeLength: 20, SampleEvery: 10}
}

// Sample is a batch-wide aggregate recorded every SampleEvery ticks.
type Sample struct {
	Tick     int     `json:"tick"`
	Time     float64 `json:"time"`
	MeanXY   float64 `json:"mean_error_vel_xy"`
	MeanYaw  float64 `json:"mean_error_vel_yaw"`
	Standing float64 `json:"standing_fraction"`
	Heading  float64 `json:"heading_fraction"`
}

// Episode records the metrics reported when a group of agents timed out.
type Episode struct {
	Tick   int                `json:"tick"`
	Agents int                `json:"agents"`
	Means  map[string]float64 `json:"means"`
}

type Result struct {
	Ticks     int                        `json:"ticks"`
	Time      float64                    `json:"time"`
	Series    []Sample                   `json:"-"`
	Episodes  []Episode                  `json:"episodes"`
	Summaries map[string]metrics.Summary `json:"summaries"`
}
