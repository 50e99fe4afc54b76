// Package control provides the small controllers and filters used while
// finalizing velocity commands:
//
//   - [Heading]: proportional heading controller producing a bounded yaw rate
//   - [LowPass]: exponential smoothing of a scalar signal
//
// # Usage
//
//	h := control.NewHeading(0.5, batch.Range{Min: -1, Max: 1})
//	wz := h.Compute(target, current) // clamp(0.5 * wrap(target-current))
//
// Both types are plain values with no goroutines; a caller owning many agents
// keeps one Heading and applies it per agent.
package control
