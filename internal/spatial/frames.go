// Package spatial resolves reference-body measurements into the canonical
// desired frame (x forward, y left, z up).
//
// Different robot variants measure velocity on links whose native axes do not
// match that convention. A [FrameTable] maps each link name to the fixed
// rotation from its native frame into the desired frame, so a new variant is a
// table entry rather than a code branch. Lookups fail closed with
// [batch.ErrUnknownReferenceBody].
package spatial

import (
	"fmt"
	"sort"

	"github.com/san-kum/velcmd/internal/batch"
	"gonum.org/v1/gonum/num/quat"
)

// minChunk is the smallest per-worker slice for batch transforms.
const minChunk = 512

// DefaultCorrections holds the built-in native->desired rotations, row-major.
var DefaultCorrections = map[string][3][3]float64{
	"base": {
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	},
	"leg1link2": {
		{-1, 0, 0},
		{0, 0, 1},
		{0, 1, 0},
	},
	"leg1link4": {
		{0, 0, -1},
		{-1, 0, 0},
		{0, 1, 0},
	},
}

// FrameTable is read-only after construction and safe for concurrent use.
type FrameTable struct {
	entries map[string]batch.Quat
}

// NewFrameTable builds a table from the defaults plus extra. Entries in extra
// override defaults of the same name. Every matrix must be a proper rotation.
func NewFrameTable(extra map[string][3][3]float64) (*FrameTable, error) {
	t := &FrameTable{entries: make(map[string]batch.Quat, len(DefaultCorrections)+len(extra))}
	for _, src := range []map[string][3][3]float64{DefaultCorrections, extra} {
		for name, rows := range src {
			if !IsRotation(rows) {
				return nil, fmt.Errorf("%w: frame correction %q is not a proper rotation", batch.ErrConfiguration, name)
			}
			t.entries[name] = QuatFromMatrix(MatFromRows(rows))
		}
	}
	return t, nil
}

// DefaultFrameTable returns the built-in table.
func DefaultFrameTable() *FrameTable {
	t, err := NewFrameTable(nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the correction quaternion for body.
func (t *FrameTable) Lookup(body string) (batch.Quat, error) {
	q, ok := t.entries[body]
	if !ok {
		return batch.Quat{}, fmt.Errorf("%w: %q (known: %v)", batch.ErrUnknownReferenceBody, body, t.Names())
	}
	return q, nil
}

func (t *FrameTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver converts batches measured on one reference body into the desired frame.
type Resolver struct {
	Body       string
	Correction batch.Quat
}

// Resolver binds the table entry for body.
func (t *FrameTable) Resolver(body string) (*Resolver, error) {
	q, err := t.Lookup(body)
	if err != nil {
		return nil, err
	}
	return &Resolver{Body: body, Correction: q}, nil
}

// DesiredOrientation composes a world orientation of the body with the correction.
func (r *Resolver) DesiredOrientation(bodyW batch.Quat) batch.Quat {
	return quat.Mul(bodyW, r.Correction)
}

// NativeOrientation undoes DesiredOrientation.
func (r *Resolver) NativeOrientation(desiredW batch.Quat) batch.Quat {
	return quat.Mul(desiredW, quat.Conj(r.Correction))
}

// DesiredVelocity expresses a world-frame velocity of the body in its desired frame.
func (r *Resolver) DesiredVelocity(bodyW batch.Quat, velW batch.Vec3) batch.Vec3 {
	return RotateInverse(r.DesiredOrientation(bodyW), velW)
}

// WorldVelocity undoes DesiredVelocity.
func (r *Resolver) WorldVelocity(bodyW batch.Quat, velD batch.Vec3) batch.Vec3 {
	return Rotate(r.DesiredOrientation(bodyW), velD)
}

// Orientations writes the desired-frame orientation of every agent into out.
func (r *Resolver) Orientations(bodyW []batch.Quat, out []batch.Quat) {
	batch.ParallelFor(len(bodyW), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = r.DesiredOrientation(bodyW[i])
		}
	})
}

// Velocities writes every agent's velocity in its desired frame into out.
func (r *Resolver) Velocities(bodyW []batch.Quat, velW []batch.Vec3, out []batch.Vec3) {
	batch.ParallelFor(len(bodyW), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = r.DesiredVelocity(bodyW[i], velW[i])
		}
	})
}

// Headings writes every agent's desired-frame yaw into out.
func (r *Resolver) Headings(bodyW []batch.Quat, out []float64) {
	batch.ParallelFor(len(bodyW), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = Yaw(r.DesiredOrientation(bodyW[i]))
		}
	})
}
