// Package batch provides the primitives shared by every per-agent computation.
//
// A batch is a fixed number N of independent agents. All per-agent data is a
// parallel slice of length N and no agent ever reads another agent's entry:
//
//   - [Vec3]: world or body frame 3-vector
//   - [Quat]: orientation quaternion (w, x, y, z)
//   - [Command]: linear x/y and angular z velocity target
//   - [Snapshot]: reference-body state supplied by the simulation each tick
//   - [ParallelFor]: data-parallel loop over agent index ranges
//
// # Example
//
//	batch.ParallelFor(n, 256, func(start, end int) {
//		for i := start; i < end; i++ {
//			out[i] = f(in[i])
//		}
//	})
//
// # Thread Safety
//
// Snapshots are read-only once handed to a consumer. ParallelFor partitions
// by index so each worker touches a disjoint range.
package batch
