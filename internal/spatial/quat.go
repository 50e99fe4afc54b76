package spatial

import (
	"math"

	"github.com/san-kum/velcmd/internal/batch"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Normalize returns q scaled to unit length. The zero quaternion maps to identity.
func Normalize(q batch.Quat) batch.Quat {
	n := quat.Abs(q)
	if n == 0 {
		return batch.Identity
	}
	return quat.Scale(1/n, q)
}

// Rotate applies q to v (active rotation, q assumed unit).
func Rotate(q batch.Quat, v batch.Vec3) batch.Vec3 {
	p := quat.Mul(quat.Mul(q, raise(v)), quat.Conj(q))
	return batch.Vec3{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// RotateInverse applies the inverse of q to v.
func RotateInverse(q batch.Quat, v batch.Vec3) batch.Vec3 {
	p := quat.Mul(quat.Mul(quat.Conj(q), raise(v)), q)
	return batch.Vec3{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

func raise(v batch.Vec3) batch.Quat {
	return batch.Quat{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
}

// Yaw extracts rotation about z from q using the ZYX Euler convention.
// The result lies in [-π, π].
func Yaw(q batch.Quat) float64 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
}

// FromYaw returns the rotation of angle yaw about +z.
func FromYaw(yaw float64) batch.Quat {
	s, c := math.Sincos(yaw / 2)
	return batch.Quat{Real: c, Kmag: s}
}

// FromAxisAngle returns the rotation of angle about axis (normalized here).
func FromAxisAngle(axis batch.Vec3, angle float64) batch.Quat {
	n := r3.Norm(axis)
	if n == 0 {
		return batch.Identity
	}
	axis = r3.Scale(1/n, axis)
	s, c := math.Sincos(angle / 2)
	return batch.Quat{Real: c, Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z}
}

// WrapToPi maps angle onto (-π, π]. An input congruent to π resolves to +π.
func WrapToPi(angle float64) float64 {
	twoPi := 2 * math.Pi
	w := math.Mod(angle+math.Pi, twoPi)
	if w < 0 {
		w += twoPi
	}
	w -= math.Pi
	if w <= -math.Pi {
		w = math.Pi
	}
	return w
}

// QuatFromMatrix converts a rotation matrix to a unit quaternion with w >= 0.
func QuatFromMatrix(m *r3.Mat) batch.Quat {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var q batch.Quat
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := 2 * math.Sqrt(tr+1)
		q = batch.Quat{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = batch.Quat{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = batch.Quat{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = batch.Quat{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return Normalize(q)
}

// MatFromRows builds an r3.Mat from row-major rows.
func MatFromRows(rows [3][3]float64) *r3.Mat {
	return r3.NewMat([]float64{
		rows[0][0], rows[0][1], rows[0][2],
		rows[1][0], rows[1][1], rows[1][2],
		rows[2][0], rows[2][1], rows[2][2],
	})
}

const rotationTol = 1e-6

// IsRotation reports whether rows form a proper rotation (orthonormal, det +1).
func IsRotation(rows [3][3]float64) bool {
	r := [3]r3.Vec{}
	for i := range rows {
		r[i] = r3.Vec{X: rows[i][0], Y: rows[i][1], Z: rows[i][2]}
		if math.Abs(r3.Norm(r[i])-1) > rotationTol {
			return false
		}
	}
	if math.Abs(r3.Dot(r[0], r[1])) > rotationTol ||
		math.Abs(r3.Dot(r[0], r[2])) > rotationTol ||
		math.Abs(r3.Dot(r[1], r[2])) > rotationTol {
		return false
	}
	return math.Abs(r3.Dot(r[0], r3.Cross(r[1], r[2]))-1) <= rotationTol
}
