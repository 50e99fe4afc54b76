package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/command"
	"github.com/san-kum/velcmd/internal/metrics"
	"gonum.org/v1/gonum/stat"
)

// Simulator is the external stepping loop around a command generator: each
// tick it feeds the plant snapshot to the generator, drives the plant with
// the finalized commands and resets agents whose episode timed out.
type Simulator struct {
	gen       *command.Generator
	plant     *Plant
	cfg       Config
	observers []Observer

	episodeTicks int
	age          []int
	timedOut     []int
}

func New(gen *command.Generator, plant *Plant, cfg Config) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if gen.Len() != plant.Len() {
		return nil, fmt.Errorf("%w: generator has %d agents, plant %d", batch.ErrDimensionMismatch, gen.Len(), plant.Len())
	}
	if d := gen.Config().Dt; math.Abs(d-cfg.Dt) > 1e-12 {
		return nil, fmt.Errorf("%w: simulation dt %g differs from command step dt %g", batch.ErrConfiguration, cfg.Dt, d)
	}
	return &Simulator{
		gen:          gen,
		plant:        plant,
		cfg:          cfg,
		episodeTicks: int(math.Round(cfg.EpisodeLength / cfg.Dt)),
		age:          make([]int, gen.Len()),
		timedOut:     make([]int, 0, gen.Len()),
	}, nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", batch.ErrConfiguration, cfg.Dt)
	}
	if !(cfg.EpisodeLength >= cfg.Dt) {
		return fmt.Errorf("%w: episode length %g must cover at least one tick", batch.ErrConfiguration, cfg.EpisodeLength)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("%w: sample_every must be non-negative, got %d", batch.ErrConfiguration, cfg.SampleEvery)
	}
	return nil
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Generator() *command.Generator { return s.gen }

// Snapshot is the plant state the next tick will feed to the generator.
func (s *Simulator) Snapshot() batch.Snapshot { return s.plant.Snapshot() }

// Reset starts a new episode for ids regardless of their age.
func (s *Simulator) Reset(ids []int) (map[string]float64, error) {
	means, err := s.gen.Reset(ids)
	if err != nil {
		return nil, err
	}
	s.plant.Reset(ids)
	for _, i := range ids {
		s.age[i] = 0
	}
	return means, nil
}

// Run advances the loop steps ticks. On cancellation the partial result is
// returned together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, steps int) (*Result, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", batch.ErrConfiguration, steps)
	}
	res := &Result{}
	if s.cfg.SampleEvery > 0 {
		res.Series = make([]Sample, 0, steps/s.cfg.SampleEvery+1)
	}

	for tick := 0; tick < steps; tick++ {
		select {
		case <-ctx.Done():
			res.Summaries = s.gen.Summaries()
			return res, ctx.Err()
		default:
		}

		if err := s.gen.Step(s.plant.Snapshot()); err != nil {
			return res, fmt.Errorf("tick %d: %w", tick, err)
		}
		cmds := s.gen.Commands()
		if err := s.plant.Advance(cmds, s.cfg.Dt); err != nil {
			return res, fmt.Errorf("tick %d: %w", tick, err)
		}
		res.Ticks++
		res.Time += s.cfg.Dt

		xy, yaw := s.gen.Metrics()
		if s.cfg.SampleEvery > 0 && res.Ticks%s.cfg.SampleEvery == 0 {
			standing, heading := s.gen.Fractions()
			res.Series = append(res.Series, Sample{
				Tick:     res.Ticks,
				Time:     res.Time,
				MeanXY:   stat.Mean(xy, nil),
				MeanYaw:  stat.Mean(yaw, nil),
				Standing: standing,
				Heading:  heading,
			})
		}
		if len(s.observers) > 0 {
			f := Frame{
				Tick:     res.Ticks,
				Time:     res.Time,
				Snapshot: s.plant.Snapshot(),
				Commands: cmds,
				ErrorXY:  xy,
				ErrorYaw: yaw,
			}
			for _, o := range s.observers {
				o.OnStep(f)
			}
		}

		if tick == steps-1 {
			res.Summaries = s.gen.Summaries()
		}

		ep, err := s.timeouts(res.Ticks)
		if err != nil {
			return res, err
		}
		if ep != nil {
			res.Episodes = append(res.Episodes, *ep)
		}
	}
	return res, nil
}

func (s *Simulator) timeouts(tick int) (*Episode, error) {
	s.timedOut = s.timedOut[:0]
	for i := range s.age {
		s.age[i]++
		if s.age[i] >= s.episodeTicks {
			s.timedOut = append(s.timedOut, i)
			s.age[i] = 0
		}
	}
	if len(s.timedOut) == 0 {
		return nil, nil
	}
	means, err := s.gen.Reset(s.timedOut)
	if err != nil {
		return nil, err
	}
	s.plant.Reset(s.timedOut)
	return &Episode{Tick: tick, Agents: len(s.timedOut), Means: means}, nil
}

// Summaries reports the current tracking distribution across the batch.
func (s *Simulator) Summaries() map[string]metrics.Summary { return s.gen.Summaries() }
