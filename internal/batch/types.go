package batch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

type Vec3 = r3.Vec

// Quat is a rotation quaternion; Real is w, Imag/Jmag/Kmag are x/y/z.
type Quat = quat.Number

// Identity is the zero rotation.
var Identity = Quat{Real: 1}

// Command is the per-agent velocity target in the canonical body frame.
type Command struct {
	LinX float64 `json:"lin_x"`
	LinY float64 `json:"lin_y"`
	AngZ float64 `json:"ang_z"`
}

func (c Command) Array() [3]float64 { return [3]float64{c.LinX, c.LinY, c.AngZ} }

func (c Command) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.LinX, c.LinY, c.AngZ)
}

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && r.Min <= r.Max
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

func (r Range) String() string { return fmt.Sprintf("(%g, %g)", r.Min, r.Max) }

// Snapshot is the read-only reference-body state of every agent at one tick,
// all in the world frame.
type Snapshot struct {
	Position    []Vec3
	Orientation []Quat
	LinVel      []Vec3
	AngVel      []Vec3
}

// NewSnapshot allocates a snapshot for n agents at rest with identity orientation.
func NewSnapshot(n int) Snapshot {
	s := Snapshot{
		Position:    make([]Vec3, n),
		Orientation: make([]Quat, n),
		LinVel:      make([]Vec3, n),
		AngVel:      make([]Vec3, n),
	}
	for i := range s.Orientation {
		s.Orientation[i] = Identity
	}
	return s
}

func (s Snapshot) Len() int { return len(s.Orientation) }

// Validate checks every array has length n. Position may be empty.
func (s Snapshot) Validate(n int) error {
	if len(s.Orientation) != n || len(s.LinVel) != n || len(s.AngVel) != n {
		return fmt.Errorf("%w: want %d agents, got orientation=%d lin_vel=%d ang_vel=%d",
			ErrDimensionMismatch, n, len(s.Orientation), len(s.LinVel), len(s.AngVel))
	}
	if len(s.Position) != 0 && len(s.Position) != n {
		return fmt.Errorf("%w: want %d positions, got %d", ErrDimensionMismatch, n, len(s.Position))
	}
	return nil
}

func (s Snapshot) IsValid() bool {
	for i := range s.Orientation {
		q := s.Orientation[i]
		for _, v := range [...]float64{q.Real, q.Imag, q.Jmag, q.Kmag,
			s.LinVel[i].X, s.LinVel[i].Y, s.LinVel[i].Z,
			s.AngVel[i].X, s.AngVel[i].Y, s.AngVel[i].Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// AllIndices returns 0..n-1.
func AllIndices(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Unique returns ids with repeats dropped, keeping first occurrences in order.
func Unique(ids []int) []int {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
