package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series too short")

// Increments returns x[i+1]-x[i]. Negative steps, which mark an episode
// reset, are reported as zero.
func Increments(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = max(x[i+1]-x[i], 0)
	}
	return out
}

type Spectrum struct {
	Freqs     []float64 // Hz
	Amplitude []float64
}

// PowerSpectrum removes the mean of data and returns its one-sided spectrum
// for samples spaced dt seconds apart.
func PowerSpectrum(data []float64, dt float64) (Spectrum, error) {
	if len(data) < 4 {
		return Spectrum{}, ErrShortSeries
	}
	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	fft := fourier.NewFFT(len(centered))
	coeff := fft.Coefficients(nil, centered)

	s := Spectrum{
		Freqs:     make([]float64, len(coeff)),
		Amplitude: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		s.Freqs[i] = fft.Freq(i) / dt
		s.Amplitude[i] = cmplx.Abs(c)
	}
	return s, nil
}

// DominantPeriod returns the period in seconds of the strongest component
// other than DC.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	s, err := PowerSpectrum(data, dt)
	if err != nil {
		return 0, err
	}
	peak := floats.MaxIdx(s.Amplitude[1:]) + 1
	return 1 / s.Freqs[peak], nil
}
