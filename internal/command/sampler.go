package command

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws fresh commands and mode flags. It is not safe for concurrent
// use because it shares one random source across every distribution.
type Sampler struct {
	linX, linY, angZ distuv.Uniform
	heading          distuv.Uniform
	interval         distuv.Uniform
	isHeading        distuv.Bernoulli
	isStanding       distuv.Bernoulli
	headingOn        bool
}

func NewSampler(cfg Config, src rand.Source) *Sampler {
	uniform := func(lo, hi float64) distuv.Uniform {
		return distuv.Uniform{Min: lo, Max: hi, Src: src}
	}
	s := &Sampler{
		linX:       uniform(cfg.Ranges.LinVelX.Min, cfg.Ranges.LinVelX.Max),
		linY:       uniform(cfg.Ranges.LinVelY.Min, cfg.Ranges.LinVelY.Max),
		angZ:       uniform(cfg.Ranges.AngVelZ.Min, cfg.Ranges.AngVelZ.Max),
		interval:   uniform(cfg.ResampleInterval.Min, cfg.ResampleInterval.Max),
		isHeading:  distuv.Bernoulli{P: cfg.HeadingProbability, Src: src},
		isStanding: distuv.Bernoulli{P: cfg.StandingProbability, Src: src},
		headingOn:  cfg.HeadingCommand,
	}
	if cfg.HeadingCommand && cfg.Ranges.Heading != nil {
		s.heading = uniform(cfg.Ranges.Heading.Min, cfg.Ranges.Heading.Max)
	}
	return s
}

// Draw overwrites the command, heading target and flags of each id in st.
// Entries not named in ids are left alone.
func (s *Sampler) Draw(st *agentState, ids []int) {
	for _, i := range ids {
		st.cmds[i].LinX = s.linX.Rand()
		st.cmds[i].LinY = s.linY.Rand()
		st.cmds[i].AngZ = s.angZ.Rand()
		if s.headingOn {
			st.heading[i] = s.heading.Rand()
			st.isHeading[i] = s.isHeading.Rand() == 1
		}
		st.isStanding[i] = s.isStanding.Rand() == 1
	}
}

// Interval draws the time until an agent's next resample.
func (s *Sampler) Interval() float64 {
	return s.interval.Rand()
}
