package command

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource() rand.Source { return rand.NewPCG(7, 11) }

func mustNew(t *testing.T, cfg Config, n int) *Generator {
	t.Helper()
	g, _, err := New(cfg, n, nil, newSource())
	require.NoError(t, err)
	return g
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		n      int
		want   error
	}{
		{"heading on without range", func(c *Config) { c.Ranges.Heading = nil }, 4, batch.ErrConfiguration},
		{"inverted lin x", func(c *Config) { c.Ranges.LinVelX = batch.Range{Min: 1, Max: -1} }, 4, batch.ErrConfiguration},
		{"inverted interval", func(c *Config) { c.ResampleInterval = batch.Range{Min: 5, Max: 2} }, 4, batch.ErrConfiguration},
		{"zero dt", func(c *Config) { c.Dt = 0 }, 4, batch.ErrConfiguration},
		{"standing probability", func(c *Config) { c.StandingProbability = 1.5 }, 4, batch.ErrConfiguration},
		{"nan heading probability", func(c *Config) { c.HeadingProbability = math.NaN() }, 4, batch.ErrConfiguration},
		{"empty batch", func(c *Config) {}, 0, batch.ErrConfiguration},
		{"unknown body", func(c *Config) { c.ReferenceBody = "tail" }, 4, batch.ErrUnknownReferenceBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			g, diags, err := New(cfg, tt.n, nil, newSource())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if g != nil || diags != nil {
				t.Error("expected no generator on failure")
			}
		})
	}
}

func TestNew_HeadingRangeUnusedAdvisory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeadingCommand = false

	g, diags, err := New(cfg, 8, nil, newSource())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, AdvisoryHeadingRangeUnused, diags[0].Code)
	assert.Contains(t, diags[0].Message, "heading_command=true")

	_, heading := g.Fractions()
	assert.Zero(t, heading, "heading mode stays off")
}

func TestNew_ResamplesEveryAgent(t *testing.T) {
	g := mustNew(t, DefaultConfig(), 16)
	for i := 0; i < g.Len(); i++ {
		a := g.Agent(i)
		if a.Resamples != 1 {
			t.Errorf("agent %d: expected 1 resample, got %d", i, a.Resamples)
		}
		if a.Interval != 10 {
			t.Errorf("agent %d: expected interval 10, got %g", i, a.Interval)
		}
	}
}

func randomSnapshot(r *rand.Rand, n int) batch.Snapshot {
	s := batch.NewSnapshot(n)
	for i := 0; i < n; i++ {
		s.Orientation[i] = spatial.FromYaw(r.Float64()*2*math.Pi - math.Pi)
		s.LinVel[i] = batch.Vec3{X: r.NormFloat64(), Y: r.NormFloat64()}
		s.AngVel[i] = batch.Vec3{Z: r.NormFloat64()}
	}
	return s
}

func TestStep_BoundsInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResampleInterval = batch.Range{Min: 0.1, Max: 0.5}
	cfg.HeadingProbability = 0.5
	cfg.StandingProbability = 0.1
	cfg.HeadingGain = 5
	cfg.Ranges.AngVelZ = batch.Range{Min: -0.3, Max: 0.7}
	g := mustNew(t, cfg, 64)
	r := rand.New(rand.NewPCG(1, 2))

	for tick := 0; tick < 300; tick++ {
		require.NoError(t, g.Step(randomSnapshot(r, g.Len())))
		for i, c := range g.Commands() {
			if !cfg.Ranges.LinVelX.Contains(c.LinX) || !cfg.Ranges.LinVelY.Contains(c.LinY) ||
				!cfg.Ranges.AngVelZ.Contains(c.AngZ) {
				t.Fatalf("tick %d agent %d: command %v out of bounds", tick, i, c)
			}
		}
	}
}

func TestStep_StandingOverridesHeading(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StandingProbability = 1
	cfg.HeadingProbability = 1
	g := mustNew(t, cfg, 32)

	require.NoError(t, g.Step(randomSnapshot(rand.New(rand.NewPCG(3, 4)), 32)))
	for i, c := range g.Commands() {
		if c != (batch.Command{}) {
			t.Errorf("agent %d: expected zero command, got %v", i, c)
		}
	}
	standing, heading := g.Fractions()
	assert.Equal(t, 1.0, standing)
	assert.Equal(t, 1.0, heading)
}

func TestStep_HeadingControl(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		yaw    float64
		limits batch.Range
		want   float64
	}{
		{"proportional", 1, 0, batch.Range{Min: -1, Max: 1}, 0.5},
		{"wraps across pi", 3, -3, batch.Range{Min: -1, Max: 1}, 0.5 * (6 - 2*math.Pi)},
		{"clamped", 3, 0, batch.Range{Min: -1, Max: 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.StandingProbability = 0
			cfg.Ranges.Heading = &batch.Range{Min: tt.target, Max: tt.target}
			cfg.Ranges.AngVelZ = tt.limits
			g := mustNew(t, cfg, 1)

			snap := batch.NewSnapshot(1)
			snap.Orientation[0] = spatial.FromYaw(tt.yaw)
			require.NoError(t, g.Step(snap))
			assert.InDelta(t, tt.want, g.Command(0).AngZ, 1e-9)
		})
	}
}

func TestHeadingController_CannotWidenLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StandingProbability = 0
	cfg.Ranges.Heading = &batch.Range{Min: 3, Max: 3}
	cfg.Ranges.AngVelZ = batch.Range{Min: -1, Max: 1}
	g := mustNew(t, cfg, 1)

	h := g.HeadingController()
	assert.ErrorIs(t, h.SetParam("Max", 5), batch.ErrConfiguration)
	assert.ErrorIs(t, h.SetParam("Min", -5), batch.ErrConfiguration)
	require.NoError(t, h.SetParam("Gain", 10))

	snap := batch.NewSnapshot(1)
	snap.Orientation[0] = spatial.FromYaw(0)
	require.NoError(t, g.Step(snap))
	c := g.Command(0)
	assert.True(t, cfg.Ranges.AngVelZ.Contains(c.AngZ), "yaw rate %v outside %+v", c.AngZ, cfg.Ranges.AngVelZ)
	assert.InDelta(t, 1.0, c.AngZ, 1e-12)
}

func TestResample_Independence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeadingProbability = 0.5
	cfg.StandingProbability = 0.5
	g := mustNew(t, cfg, 20)
	r := rand.New(rand.NewPCG(5, 6))
	for k := 0; k < 5; k++ {
		require.NoError(t, g.Step(randomSnapshot(r, 20)))
	}

	before := make([]Agent, g.Len())
	for i := range before {
		before[i] = g.Agent(i)
	}
	require.NoError(t, g.Resample([]int{3, 11}))

	for j := range before {
		if j == 3 || j == 11 {
			continue
		}
		if diff := cmp.Diff(before[j], g.Agent(j)); diff != "" {
			t.Errorf("agent %d mutated by resampling others (-before +after):\n%s", j, diff)
		}
	}
	assert.Equal(t, before[3].Resamples+1, g.Agent(3).Resamples)
	assert.Zero(t, g.Agent(11).Elapsed)
}

func TestResample_Empty(t *testing.T) {
	g := mustNew(t, DefaultConfig(), 4)
	want := g.Commands()
	require.NoError(t, g.Resample(nil))
	if diff := cmp.Diff(want, g.Commands()); diff != "" {
		t.Errorf("empty resample changed commands:\n%s", diff)
	}
}

func TestStep_FixedIntervalSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResampleInterval = batch.Range{Min: 0.1, Max: 0.1}
	g := mustNew(t, cfg, 3)
	snap := batch.NewSnapshot(3)

	for k := 0; k < 4; k++ {
		require.NoError(t, g.Step(snap))
	}
	assert.Equal(t, 1, g.Agent(0).Resamples)

	require.NoError(t, g.Step(snap))
	for i := 0; i < 3; i++ {
		a := g.Agent(i)
		assert.Equal(t, 2, a.Resamples, "agent %d", i)
		assert.Zero(t, a.Elapsed, "agent %d", i)
	}
}

func TestStep_StaggeredSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResampleInterval = batch.Range{Min: 0.1, Max: 2}
	g := mustNew(t, cfg, 50)
	snap := batch.NewSnapshot(50)

	for k := 0; k < 100; k++ {
		require.NoError(t, g.Step(snap))
	}
	counts := map[int]bool{}
	for i := 0; i < g.Len(); i++ {
		counts[g.Agent(i).Resamples] = true
		if a := g.Agent(i); a.Elapsed > a.Interval {
			t.Errorf("agent %d: elapsed %g past interval %g", i, a.Elapsed, a.Interval)
		}
	}
	if len(counts) < 2 {
		t.Error("expected agents to resample on different schedules")
	}
}

func TestIndexOutOfRange(t *testing.T) {
	g := mustNew(t, DefaultConfig(), 4)

	err := g.Resample([]int{0, 4})
	require.ErrorIs(t, err, batch.ErrIndexOutOfRange)
	var ae *batch.AgentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 4, ae.Index)

	_, err = g.Reset([]int{-1})
	assert.ErrorIs(t, err, batch.ErrIndexOutOfRange)
}

func TestStep_DimensionMismatch(t *testing.T) {
	g := mustNew(t, DefaultConfig(), 4)
	err := g.Step(batch.NewSnapshot(3))
	assert.ErrorIs(t, err, batch.ErrDimensionMismatch)
	assert.Zero(t, g.Ticks())

	assert.ErrorIs(t, g.Finalize(make([]batch.Quat, 5)), batch.ErrDimensionMismatch)
}

func constantConfig() Config {
	cfg := DefaultConfig()
	cfg.HeadingCommand = false
	cfg.Ranges.Heading = nil
	cfg.StandingProbability = 0
	cfg.Ranges.LinVelX = batch.Range{Min: 1, Max: 1}
	cfg.Ranges.LinVelY = batch.Range{Min: 0, Max: 0}
	cfg.Ranges.AngVelZ = batch.Range{Min: 0.5, Max: 0.5}
	return cfg
}

func TestReset_ReportsAndZeroesMetrics(t *testing.T) {
	g := mustNew(t, constantConfig(), 4)
	snap := batch.NewSnapshot(4)
	for k := 0; k < 10; k++ {
		require.NoError(t, g.Step(snap))
	}

	xy, yaw := g.Metrics()
	for i := range xy {
		assert.InDelta(t, 10.0/500, xy[i], 1e-12)
		assert.InDelta(t, 0.5*10/500, yaw[i], 1e-12)
	}

	means, err := g.Reset([]int{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.02, means["error_vel_xy"], 1e-12)
	assert.InDelta(t, 0.01, means["error_vel_yaw"], 1e-12)

	xy, _ = g.Metrics()
	assert.Zero(t, xy[1])
	assert.Zero(t, xy[2])
	assert.InDelta(t, 0.02, xy[0], 1e-12)
	assert.Equal(t, 1, g.Agent(1).Resamples)
	assert.Zero(t, g.Agent(1).Elapsed)
}

func TestReset_DuplicateIDs(t *testing.T) {
	g := mustNew(t, constantConfig(), 3)
	snap := batch.NewSnapshot(3)
	for k := 0; k < 10; k++ {
		require.NoError(t, g.Step(snap))
	}

	means, err := g.Reset([]int{0, 0, 2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.02, means["error_vel_xy"], 1e-12)
	assert.InDelta(t, 0.01, means["error_vel_yaw"], 1e-12)
	assert.Equal(t, 1, g.Agent(0).Resamples)
	assert.Equal(t, 1, g.Agent(2).Resamples)

	before := g.Agent(1).Resamples
	require.NoError(t, g.Resample([]int{1, 1}))
	assert.Equal(t, before+1, g.Agent(1).Resamples)
}

func TestStep_TracksInDesiredFrame(t *testing.T) {
	cfg := constantConfig()
	cfg.ReferenceBody = "leg1link4"
	table := spatial.DefaultFrameTable()
	g, _, err := New(cfg, 2, table, newSource())
	require.NoError(t, err)

	res, err := table.Resolver("leg1link4")
	require.NoError(t, err)
	// Mount the link so its desired frame is yawed 0.4 rad in the world.
	desired := spatial.FromYaw(0.4)
	native := res.NativeOrientation(desired)

	snap := batch.NewSnapshot(2)
	for i := 0; i < 2; i++ {
		snap.Orientation[i] = native
		snap.LinVel[i] = res.WorldVelocity(native, batch.Vec3{X: 1})
		snap.AngVel[i] = res.WorldVelocity(native, batch.Vec3{Z: 0.5})
	}
	for k := 0; k < 20; k++ {
		require.NoError(t, g.Step(snap))
	}

	xy, yaw := g.Metrics()
	for i := range xy {
		assert.InDelta(t, 0, xy[i], 1e-9)
		assert.InDelta(t, 0, yaw[i], 1e-9)
	}
}

func TestDebugVis_Arrows(t *testing.T) {
	cfg := constantConfig()
	g := mustNew(t, cfg, 2)
	assert.Nil(t, g.Arrows())

	cfg.DebugVis = true
	g = mustNew(t, cfg, 2)
	require.NotNil(t, g.Arrows())

	snap := batch.NewSnapshot(2)
	snap.Position[1] = batch.Vec3{X: 2, Z: 1}
	require.NoError(t, g.Step(snap))

	a := g.Arrows()
	assert.InDelta(t, 0.5*1*3, a.Goal[0].Scale.X, 1e-12)
	assert.InDelta(t, 0, a.Current[0].Scale.X, 1e-12)
	assert.Equal(t, batch.Vec3{X: 2, Z: 1.5}, a.Goal[1].Position)
}

func TestGenerator_String(t *testing.T) {
	g := mustNew(t, DefaultConfig(), 1)
	s := g.String()
	for _, want := range []string{"Reference body: base", "Heading probability: 1", "Standing probability: 0.02"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}
