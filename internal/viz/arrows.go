package viz

import (
	"math"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// ArrowLift raises markers above the reference body.
	ArrowLift = 0.5
	// ArrowGain scales arrow length per m/s of planar speed.
	ArrowGain = 3.0
)

// DefaultArrowScale is the marker scale before speed is applied.
var DefaultArrowScale = batch.Vec3{X: 0.5, Y: 0.5, Z: 0.5}

// Marker is one arrow pose in the world frame.
type Marker struct {
	Position    batch.Vec3
	Orientation batch.Quat
	Scale       batch.Vec3
}

// Arrows holds the goal and measured velocity markers for every agent.
// The buffers are allocated once; Update overwrites them in place.
type Arrows struct {
	Goal    []Marker
	Current []Marker
	Base    batch.Vec3
	visible bool
}

func NewArrows(n int) *Arrows {
	return &Arrows{
		Goal:    make([]Marker, n),
		Current: make([]Marker, n),
		Base:    DefaultArrowScale,
		visible: true,
	}
}

func (a *Arrows) SetVisible(v bool) { a.visible = v }

func (a *Arrows) Visible() bool { return a.visible }

// ResolveArrow converts a planar velocity expressed in a body's desired frame
// to an arrow scale and world orientation.
func ResolveArrow(vx, vy float64, desired batch.Quat, base batch.Vec3) (batch.Vec3, batch.Quat) {
	scale := base
	scale.X *= math.Hypot(vx, vy) * ArrowGain
	heading := spatial.FromYaw(math.Atan2(vy, vx))
	return scale, quat.Mul(desired, heading)
}

// Update recomputes every marker. pos may be empty, in which case markers sit
// at the origin lifted by ArrowLift.
func (a *Arrows) Update(pos []batch.Vec3, desired []batch.Quat, goal []batch.Command, current []batch.Vec3) {
	if !a.visible {
		return
	}
	lift := batch.Vec3{Z: ArrowLift}
	batch.ParallelFor(len(desired), 1024, func(start, end int) {
		for i := start; i < end; i++ {
			p := lift
			if len(pos) > 0 {
				p = r3.Add(pos[i], lift)
			}
			gs, gq := ResolveArrow(goal[i].LinX, goal[i].LinY, desired[i], a.Base)
			cs, cq := ResolveArrow(current[i].X, current[i].Y, desired[i], a.Base)
			a.Goal[i] = Marker{Position: p, Orientation: gq, Scale: gs}
			a.Current[i] = Marker{Position: p, Orientation: cq, Scale: cs}
		}
	})
}
