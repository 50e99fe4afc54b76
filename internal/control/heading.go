package control

import (
	"fmt"
	"math"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/spatial"
)

// Heading turns a heading error into a yaw-rate command.
type Heading struct {
	Gain   float64
	limits batch.Range
}

func NewHeading(gain float64, limits batch.Range) *Heading {
	return &Heading{Gain: gain, limits: limits}
}

// Limits is the output range Compute clamps to.
func (h *Heading) Limits() batch.Range { return h.limits }

// Error is the shortest signed angle from current to target, in (-π, π].
func (h *Heading) Error(target, current float64) float64 {
	return spatial.WrapToPi(target - current)
}

// Compute returns clamp(Gain * Error(target, current), Limits()).
func (h *Heading) Compute(target, current float64) float64 {
	return h.limits.Clamp(h.Gain * h.Error(target, current))
}

// GetParams returns tunable parameters for live adjustment. The output
// limits are fixed at construction.
func (h *Heading) GetParams() map[string]float64 {
	return map[string]float64{"Gain": h.Gain}
}

// SetParam adjusts a heading parameter
func (h *Heading) SetParam(name string, value float64) error {
	switch name {
	case "Gain":
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: heading gain must be finite, got %g", batch.ErrConfiguration, value)
		}
		h.Gain = value
	default:
		return fmt.Errorf("%w: unknown heading parameter %q", batch.ErrConfiguration, name)
	}
	return nil
}
