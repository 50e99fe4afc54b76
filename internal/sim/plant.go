package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// PlantConfig shapes the kinematic stand-in for a physics engine.
type PlantConfig struct {
	// Tau is the first-order lag time constant in seconds. Zero tracks exactly.
	Tau float64 `yaml:"tau" json:"tau"`
	// Noise is the standard deviation of additive velocity noise in m/s and rad/s.
	Noise float64 `yaml:"noise" json:"noise"`
}

func DefaultPlantConfig() PlantConfig {
	return PlantConfig{Tau: 0.1, Noise: 0.02}
}

// Plant moves each agent in the plane with a lagged response to its command
// and reports the reference body state as a world-frame snapshot. The body is
// mounted with the inverse of its frame correction, so the desired frame of
// the body is the agent's forward/left/up frame.
type Plant struct {
	cfg      PlantConfig
	resolver *spatial.Resolver
	noise    distuv.Normal
	yawInit  distuv.Uniform

	pos  []batch.Vec3
	yaw  []float64
	lin  []batch.Vec3 // desired frame
	angZ []float64
	eps  []batch.Command

	snap batch.Snapshot
}

func NewPlant(n int, resolver *spatial.Resolver, cfg PlantConfig, src rand.Source) (*Plant, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: plant needs at least one agent, got %d", batch.ErrConfiguration, n)
	}
	if !(cfg.Tau >= 0) || !(cfg.Noise >= 0) || math.IsInf(cfg.Tau, 0) || math.IsInf(cfg.Noise, 0) {
		return nil, fmt.Errorf("%w: plant tau %g and noise %g must be finite and non-negative",
			batch.ErrConfiguration, cfg.Tau, cfg.Noise)
	}
	p := &Plant{
		cfg:      cfg,
		resolver: resolver,
		noise:    distuv.Normal{Mu: 0, Sigma: cfg.Noise, Src: src},
		yawInit:  distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: src},
		pos:      make([]batch.Vec3, n),
		yaw:      make([]float64, n),
		lin:      make([]batch.Vec3, n),
		angZ:     make([]float64, n),
		eps:      make([]batch.Command, n),
		snap:     batch.NewSnapshot(n),
	}
	p.Reset(batch.AllIndices(n))
	return p, nil
}

func (p *Plant) Len() int { return len(p.yaw) }

// Reset puts ids at the origin, at rest, facing a random heading.
func (p *Plant) Reset(ids []int) {
	for _, i := range ids {
		p.pos[i] = batch.Vec3{}
		p.yaw[i] = p.yawInit.Rand()
		p.lin[i] = batch.Vec3{}
		p.angZ[i] = 0
		p.writeSnapshot(i)
	}
}

// Snapshot returns the current state. The returned slices are owned by the
// plant and change on the next Advance or Reset.
func (p *Plant) Snapshot() batch.Snapshot { return p.snap }

// Advance integrates every agent one tick of length dt toward cmds.
func (p *Plant) Advance(cmds []batch.Command, dt float64) error {
	if len(cmds) != p.Len() {
		return fmt.Errorf("%w: want %d commands, got %d", batch.ErrDimensionMismatch, p.Len(), len(cmds))
	}
	k := 1.0
	if p.cfg.Tau > 0 {
		k = math.Min(1, dt/p.cfg.Tau)
	}
	if p.cfg.Noise > 0 {
		for i := range p.eps {
			p.eps[i] = batch.Command{LinX: p.noise.Rand(), LinY: p.noise.Rand(), AngZ: p.noise.Rand()}
		}
	}

	batch.ParallelFor(p.Len(), 512, func(start, end int) {
		for i := start; i < end; i++ {
			c, e := cmds[i], p.eps[i]
			p.lin[i].X += k*(c.LinX-p.lin[i].X) + e.LinX
			p.lin[i].Y += k*(c.LinY-p.lin[i].Y) + e.LinY
			p.angZ[i] += k*(c.AngZ-p.angZ[i]) + e.AngZ

			p.yaw[i] = spatial.WrapToPi(p.yaw[i] + p.angZ[i]*dt)
			world := spatial.Rotate(spatial.FromYaw(p.yaw[i]), p.lin[i])
			p.pos[i] = r3.Add(p.pos[i], r3.Scale(dt, world))
			p.writeSnapshot(i)
		}
	})
	return nil
}

func (p *Plant) writeSnapshot(i int) {
	desired := spatial.FromYaw(p.yaw[i])
	native := p.resolver.NativeOrientation(desired)
	p.snap.Position[i] = p.pos[i]
	p.snap.Orientation[i] = native
	p.snap.LinVel[i] = p.resolver.WorldVelocity(native, p.lin[i])
	p.snap.AngVel[i] = p.resolver.WorldVelocity(native, batch.Vec3{Z: p.angZ[i]})
}
