package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/velcmd/internal/batch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	ErrorVelXY  = "error_vel_xy"
	ErrorVelYaw = "error_vel_yaw"
)

const minChunk = 1024

// Tracking accumulates per-agent command tracking error. Every tick adds the
// instantaneous error divided by the number of ticks in the longest resample
// interval, so an agent that misses by e for a whole interval accrues about e.
// Agents resampled sooner than the longest interval report proportionally less.
type Tracking struct {
	maxTicks float64
	xy       []float64
	yaw      []float64
}

// MaxTicks is the number of ticks in the longest resample interval.
func MaxTicks(maxInterval, dt float64) float64 {
	return maxInterval / dt
}

func NewTracking(n int, maxTicks float64) (*Tracking, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: tracking needs at least one agent, got %d", batch.ErrConfiguration, n)
	}
	if !(maxTicks > 0) || math.IsInf(maxTicks, 0) {
		return nil, fmt.Errorf("%w: max ticks per interval must be positive and finite, got %g", batch.ErrConfiguration, maxTicks)
	}
	return &Tracking{
		maxTicks: maxTicks,
		xy:       make([]float64, n),
		yaw:      make([]float64, n),
	}, nil
}

func (m *Tracking) Len() int { return len(m.xy) }

func (m *Tracking) MaxTicks() float64 { return m.maxTicks }

func (m *Tracking) XY(i int) float64 { return m.xy[i] }

func (m *Tracking) Yaw(i int) float64 { return m.yaw[i] }

// Values returns copies of the linear and angular accumulators.
func (m *Tracking) Values() (xy, yaw []float64) {
	return append([]float64(nil), m.xy...), append([]float64(nil), m.yaw...)
}

// Accumulate adds one tick of error. lin and ang are measured velocities
// already expressed in each agent's desired frame.
func (m *Tracking) Accumulate(cmds []batch.Command, lin, ang []batch.Vec3) error {
	n := len(m.xy)
	if len(cmds) != n || len(lin) != n || len(ang) != n {
		return fmt.Errorf("%w: tracking has %d agents, got cmds=%d lin=%d ang=%d",
			batch.ErrDimensionMismatch, n, len(cmds), len(lin), len(ang))
	}
	inv := 1 / m.maxTicks
	batch.ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			m.xy[i] += math.Hypot(cmds[i].LinX-lin[i].X, cmds[i].LinY-lin[i].Y) * inv
			m.yaw[i] += math.Abs(cmds[i].AngZ-ang[i].Z) * inv
		}
	})
	return nil
}

// Reset zeroes the given agents and returns the mean of each metric over them
// taken before zeroing. Repeated ids count once. An empty ids slice returns
// zero means.
func (m *Tracking) Reset(ids []int) (map[string]float64, error) {
	if err := batch.CheckIndices(ids, len(m.xy)); err != nil {
		return nil, err
	}
	ids = batch.Unique(ids)
	out := map[string]float64{ErrorVelXY: 0, ErrorVelYaw: 0}
	if len(ids) == 0 {
		return out, nil
	}
	xy := make([]float64, len(ids))
	yaw := make([]float64, len(ids))
	for k, i := range ids {
		xy[k], yaw[k] = m.xy[i], m.yaw[i]
		m.xy[i], m.yaw[i] = 0, 0
	}
	out[ErrorVelXY] = stat.Mean(xy, nil)
	out[ErrorVelYaw] = stat.Mean(yaw, nil)
	return out, nil
}

// Summary describes one metric across the batch.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func summarize(x []float64) Summary {
	if len(x) < 2 {
		v := 0.0
		if len(x) == 1 {
			v = x[0]
		}
		return Summary{Mean: v, Min: v, Max: v}
	}
	mean, std := stat.MeanStdDev(x, nil)
	return Summary{Mean: mean, Std: std, Min: floats.Min(x), Max: floats.Max(x)}
}

// Summaries returns batch statistics keyed by metric name.
func (m *Tracking) Summaries() map[string]Summary {
	return map[string]Summary{
		ErrorVelXY:  summarize(m.xy),
		ErrorVelYaw: summarize(m.yaw),
	}
}
