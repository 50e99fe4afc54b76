package control

import (
	"fmt"

	"github.com/san-kum/velcmd/internal/batch"
)

// LowPass is an exponential smoothing filter:
//
//	y[0] = x[0]
//	y[k] = alpha*x[k] + (1-alpha)*y[k-1]
//
// alpha = 1 passes the input through unchanged; alpha near 0 holds the first value.
type LowPass struct {
	alpha  float64
	prev   float64
	primed bool
}

// NewLowPass rejects alpha outside (0, 1].
func NewLowPass(alpha float64) (*LowPass, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: low-pass alpha %g not in (0, 1]", batch.ErrConfiguration, alpha)
	}
	return &LowPass{alpha: alpha}, nil
}

func (f *LowPass) Alpha() float64 { return f.alpha }

func (f *LowPass) Apply(value float64) float64 {
	if !f.primed {
		f.prev = value
		f.primed = true
		return f.prev
	}
	f.prev = f.alpha*value + (1-f.alpha)*f.prev
	return f.prev
}

// Value returns the last output and whether any input has been seen.
func (f *LowPass) Value() (float64, bool) { return f.prev, f.primed }

// Reset clears the filter so the next input passes through.
func (f *LowPass) Reset() {
	f.prev = 0
	f.primed = false
}
