package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestDominantPeriod_Sine(t *testing.T) {
	const dt = 0.1
	data := make([]float64, 200)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*float64(i)*dt/2)
	}

	period, err := DominantPeriod(data, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(period-2) > 1e-9 {
		t.Errorf("expected period 2s, got %g", period)
	}
}

func TestDominantPeriod_ResampleSpikes(t *testing.T) {
	// Cumulative error that grows fastest around every 25th sample, like a
	// fixed resample interval.
	const dt = 0.2
	cum := make([]float64, 401)
	for i := 1; i < len(cum); i++ {
		d := min(i%25, 25-i%25)
		cum[i] = cum[i-1] + 0.001 + 0.01*float64(max(5-d, 0))
	}

	period, err := DominantPeriod(Increments(cum), dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(period-5) > 1e-9 {
		t.Errorf("expected period 5s, got %g", period)
	}
}

func TestIncrements_ClampsResets(t *testing.T) {
	got := Increments([]float64{0, 1, 3, 0.5, 1})
	want := []float64{1, 2, 0, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %g, got %g", i, want[i], got[i])
		}
	}
	if Increments([]float64{1}) != nil {
		t.Error("expected nil for a single sample")
	}
}

func TestPowerSpectrum_Short(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1, 2}, 0.1); !errors.Is(err, ErrShortSeries) {
		t.Errorf("expected ErrShortSeries, got %v", err)
	}
}
