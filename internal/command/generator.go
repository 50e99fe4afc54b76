package command

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/control"
	"github.com/san-kum/velcmd/internal/metrics"
	"github.com/san-kum/velcmd/internal/spatial"
	"github.com/san-kum/velcmd/internal/viz"
)

// timeEps absorbs accumulated rounding in elapsed time so an interval that is
// an exact multiple of dt fires on the expected tick.
const timeEps = 1e-9

const minChunk = 1024

type agentState struct {
	cmds       []batch.Command
	heading    []float64
	isHeading  []bool
	isStanding []bool
	elapsed    []float64
	interval   []float64
	counter    []int
}

func newAgentState(n int) agentState {
	return agentState{
		cmds:       make([]batch.Command, n),
		heading:    make([]float64, n),
		isHeading:  make([]bool, n),
		isStanding: make([]bool, n),
		elapsed:    make([]float64, n),
		interval:   make([]float64, n),
		counter:    make([]int, n),
	}
}

// Generator owns every per-agent command array for a fixed batch and exposes
// the per-tick stepping contract. It is not safe for concurrent use; readers
// must not run while Step, Resample or Reset is in progress.
type Generator struct {
	cfg      Config
	n        int
	resolver *spatial.Resolver
	sampler  *Sampler
	heading  *control.Heading
	tracking *metrics.Tracking
	arrows   *viz.Arrows
	state    agentState
	ticks    int

	// scratch, reused every tick
	due     []int
	yaw     []float64
	linD    []batch.Vec3
	angD    []batch.Vec3
	orientD []batch.Quat
}

// New validates cfg, builds an n-agent generator and resamples every agent.
// A nil table means spatial.DefaultFrameTable. No generator is returned on error.
func New(cfg Config, n int, table *spatial.FrameTable, src rand.Source) (*Generator, Diagnostics, error) {
	if n <= 0 {
		return nil, nil, configErr("batch size must be positive, got %d", n)
	}
	if src == nil {
		return nil, nil, configErr("random source is required")
	}
	if table == nil {
		table = spatial.DefaultFrameTable()
	}
	diags, err := cfg.Validate(table)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := table.Resolver(cfg.ReferenceBody)
	if err != nil {
		return nil, nil, err
	}
	tracking, err := metrics.NewTracking(n, metrics.MaxTicks(cfg.ResampleInterval.Max, cfg.Dt))
	if err != nil {
		return nil, nil, err
	}

	g := &Generator{
		cfg:      cfg,
		n:        n,
		resolver: resolver,
		sampler:  NewSampler(cfg, src),
		heading:  control.NewHeading(cfg.HeadingGain, cfg.Ranges.AngVelZ),
		tracking: tracking,
		state:    newAgentState(n),
		due:      make([]int, 0, n),
		yaw:      make([]float64, n),
		linD:     make([]batch.Vec3, n),
		angD:     make([]batch.Vec3, n),
	}
	if cfg.DebugVis {
		g.arrows = viz.NewArrows(n)
		g.orientD = make([]batch.Quat, n)
	}
	if _, err := g.Reset(batch.AllIndices(n)); err != nil {
		return nil, nil, err
	}
	return g, diags, nil
}

func (g *Generator) Len() int { return g.n }

func (g *Generator) Config() Config { return g.cfg }

// Ticks counts completed Step calls.
func (g *Generator) Ticks() int { return g.ticks }

// Arrows returns the debug markers, or nil when DebugVis is off.
func (g *Generator) Arrows() *viz.Arrows { return g.arrows }

// Step runs one simulation tick: advance every agent's resample clock,
// resample the agents whose interval elapsed, finalize all commands and
// accumulate tracking error against the measured reference-body state.
func (g *Generator) Step(snap batch.Snapshot) error {
	if err := snap.Validate(g.n); err != nil {
		return err
	}

	st := &g.state
	g.due = g.due[:0]
	for i := range st.elapsed {
		st.elapsed[i] += g.cfg.Dt
		if st.elapsed[i] >= st.interval[i]-timeEps {
			g.due = append(g.due, i)
		}
	}
	g.resample(g.due)

	g.finalize(snap.Orientation)

	g.resolver.Velocities(snap.Orientation, snap.LinVel, g.linD)
	g.resolver.Velocities(snap.Orientation, snap.AngVel, g.angD)
	if err := g.tracking.Accumulate(st.cmds, g.linD, g.angD); err != nil {
		return err
	}

	if g.arrows != nil && g.arrows.Visible() {
		g.resolver.Orientations(snap.Orientation, g.orientD)
		g.arrows.Update(snap.Position, g.orientD, st.cmds, g.linD)
	}
	g.ticks++
	return nil
}

// Resample draws new commands and flags for ids and restarts their clocks.
// Repeated ids are resampled once.
func (g *Generator) Resample(ids []int) error {
	if err := batch.CheckIndices(ids, g.n); err != nil {
		return err
	}
	g.resample(batch.Unique(ids))
	return nil
}

func (g *Generator) resample(ids []int) {
	if len(ids) == 0 {
		return
	}
	st := &g.state
	g.sampler.Draw(st, ids)
	for _, i := range ids {
		st.elapsed[i] = 0
		st.interval[i] = g.sampler.Interval()
		st.counter[i]++
	}
}

// Finalize applies heading control and standing overrides for the given
// reference-body orientations. Step calls it every tick.
func (g *Generator) Finalize(orientation []batch.Quat) error {
	if len(orientation) != g.n {
		return fmt.Errorf("%w: want %d orientations, got %d", batch.ErrDimensionMismatch, g.n, len(orientation))
	}
	g.finalize(orientation)
	return nil
}

func (g *Generator) finalize(orientation []batch.Quat) {
	st := &g.state
	headingOn := g.cfg.HeadingCommand
	if headingOn {
		g.resolver.Headings(orientation, g.yaw)
	}
	batch.ParallelFor(g.n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			if headingOn && st.isHeading[i] {
				st.cmds[i].AngZ = g.heading.Compute(st.heading[i], g.yaw[i])
			}
			if st.isStanding[i] {
				st.cmds[i] = batch.Command{}
			}
		}
	})
}

// Reset starts a new episode for ids: tracking metrics are reported and
// zeroed, then each agent is resampled as if newly constructed. The returned
// map holds the mean of each metric over the distinct ids before zeroing.
func (g *Generator) Reset(ids []int) (map[string]float64, error) {
	if err := batch.CheckIndices(ids, g.n); err != nil {
		return nil, err
	}
	ids = batch.Unique(ids)
	means, err := g.tracking.Reset(ids)
	if err != nil {
		return nil, err
	}
	for _, i := range ids {
		g.state.counter[i] = 0
	}
	g.resample(ids)
	return means, nil
}

// Commands returns a copy of the current command batch.
func (g *Generator) Commands() []batch.Command {
	return append([]batch.Command(nil), g.state.cmds...)
}

func (g *Generator) Command(i int) batch.Command { return g.state.cmds[i] }

// Metrics returns copies of the linear and angular tracking accumulators.
func (g *Generator) Metrics() (xy, yaw []float64) { return g.tracking.Values() }

func (g *Generator) Summaries() map[string]metrics.Summary { return g.tracking.Summaries() }

// Agent is a read-only copy of one agent's command state.
type Agent struct {
	Command       batch.Command
	HeadingTarget float64
	IsHeading     bool
	IsStanding    bool
	Elapsed       float64
	Interval      float64
	Resamples     int
	ErrorXY       float64
	ErrorYaw      float64
}

func (g *Generator) Agent(i int) Agent {
	st := &g.state
	return Agent{
		Command:       st.cmds[i],
		HeadingTarget: st.heading[i],
		IsHeading:     st.isHeading[i],
		IsStanding:    st.isStanding[i],
		Elapsed:       st.elapsed[i],
		Interval:      st.interval[i],
		Resamples:     st.counter[i],
		ErrorXY:       g.tracking.XY(i),
		ErrorYaw:      g.tracking.Yaw(i),
	}
}

// HeadingController is the controller Finalize applies; tuning it takes
// effect on the next tick.
func (g *Generator) HeadingController() *control.Heading { return g.heading }

// Fractions reports the share of agents currently standing and heading-controlled.
func (g *Generator) Fractions() (standing, heading float64) {
	var s, h int
	for i := 0; i < g.n; i++ {
		if g.state.isStanding[i] {
			s++
		}
		if g.state.isHeading[i] {
			h++
		}
	}
	return float64(s) / float64(g.n), float64(h) / float64(g.n)
}

func (g *Generator) String() string {
	var b strings.Builder
	b.WriteString("UniformVelocityCommand:\n")
	fmt.Fprintf(&b, "\tCommand dimension: (3,)\n")
	fmt.Fprintf(&b, "\tReference body: %s\n", g.cfg.ReferenceBody)
	fmt.Fprintf(&b, "\tResampling time range: %v\n", g.cfg.ResampleInterval)
	fmt.Fprintf(&b, "\tHeading command: %v\n", g.cfg.HeadingCommand)
	if g.cfg.HeadingCommand {
		fmt.Fprintf(&b, "\tHeading probability: %g\n", g.cfg.HeadingProbability)
	}
	fmt.Fprintf(&b, "\tStanding probability: %g", g.cfg.StandingProbability)
	return b.String()
}
