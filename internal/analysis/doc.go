// Package analysis provides post-run tools for stored tracking series.
//
//   - [Increments]: per-sample growth of a cumulative series
//   - [PowerSpectrum]: one-sided amplitude spectrum of an evenly sampled series
//   - [DominantPeriod]: period of the strongest non-DC component
//
// # Resample Periodicity
//
// Tracking error spikes right after each resample, so the dominant period of
// the error increments recovers the effective resample interval:
//
//	inc := analysis.Increments(meanXY)
//	period, err := analysis.DominantPeriod(inc, sampleDt)
package analysis
