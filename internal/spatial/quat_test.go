package spatial

import (
	"math"
	"testing"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

const tol = 1e-9

func TestWrapToPi(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
		want  float64
	}{
		{"zero", 0, 0},
		{"inside", 1.0, 1.0},
		{"negative inside", -2.5, -2.5},
		{"crosses +pi", 6.0, 6.0 - 2*math.Pi},
		{"crosses -pi", -4.0, -4.0 + 2*math.Pi},
		{"exactly pi", math.Pi, math.Pi},
		{"exactly -pi", -math.Pi, math.Pi},
		{"three turns", 3*2*math.Pi + 0.25, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapToPi(tt.angle)
			if math.Abs(got-tt.want) > tol {
				t.Errorf("WrapToPi(%v) = %v, want %v", tt.angle, got, tt.want)
			}
			if got <= -math.Pi || got > math.Pi {
				t.Errorf("WrapToPi(%v) = %v outside (-pi, pi]", tt.angle, got)
			}
		})
	}
}

func TestWrapToPi_HeadingError(t *testing.T) {
	got := WrapToPi(3.0 - (-3.0))
	assert.InDelta(t, -0.2832, got, 1e-4)
}

func TestYawRoundTrip(t *testing.T) {
	for _, yaw := range []float64{-3.0, -1.2, 0, 0.4, 2.9, math.Pi} {
		got := Yaw(FromYaw(yaw))
		assert.InDelta(t, 0, WrapToPi(got-yaw), tol, "yaw %v", yaw)
	}
}

func TestRotate_Inverse(t *testing.T) {
	q := FromAxisAngle(batch.Vec3{X: 1, Y: 2, Z: -0.5}, 1.1)
	v := batch.Vec3{X: 0.3, Y: -1.2, Z: 2.0}

	back := RotateInverse(q, Rotate(q, v))
	assert.InDelta(t, v.X, back.X, tol)
	assert.InDelta(t, v.Y, back.Y, tol)
	assert.InDelta(t, v.Z, back.Z, tol)

	// 90 degrees about z takes +x to +y.
	r := Rotate(FromYaw(math.Pi/2), batch.Vec3{X: 1})
	assert.InDelta(t, 0, r.X, tol)
	assert.InDelta(t, 1, r.Y, tol)
}

func TestQuatFromMatrix_MatchesColumns(t *testing.T) {
	for name, rows := range DefaultCorrections {
		t.Run(name, func(t *testing.T) {
			q := QuatFromMatrix(MatFromRows(rows))
			require.InDelta(t, 1, quat.Abs(q), tol)
			require.GreaterOrEqual(t, q.Real, 0.0)

			basis := []batch.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
			for j, e := range basis {
				col := Rotate(q, e)
				assert.InDelta(t, rows[0][j], col.X, 1e-9)
				assert.InDelta(t, rows[1][j], col.Y, 1e-9)
				assert.InDelta(t, rows[2][j], col.Z, 1e-9)
			}
		})
	}
}

func TestQuatFromMatrix_AllBranches(t *testing.T) {
	for _, q0 := range []batch.Quat{
		FromAxisAngle(batch.Vec3{Z: 1}, 0.3),
		FromAxisAngle(batch.Vec3{X: 1}, 3.0),
		FromAxisAngle(batch.Vec3{Y: 1}, 3.0),
		FromAxisAngle(batch.Vec3{Z: 1}, 3.0),
	} {
		var rows [3][3]float64
		for j, e := range []batch.Vec3{{X: 1}, {Y: 1}, {Z: 1}} {
			c := Rotate(q0, e)
			rows[0][j], rows[1][j], rows[2][j] = c.X, c.Y, c.Z
		}
		q := QuatFromMatrix(MatFromRows(rows))
		if q0.Real < 0 {
			q0 = quat.Scale(-1, q0)
		}
		assert.InDelta(t, q0.Real, q.Real, 1e-9)
		assert.InDelta(t, q0.Imag, q.Imag, 1e-9)
		assert.InDelta(t, q0.Jmag, q.Jmag, 1e-9)
		assert.InDelta(t, q0.Kmag, q.Kmag, 1e-9)
	}
}

func TestIsRotation(t *testing.T) {
	assert.True(t, IsRotation(DefaultCorrections["leg1link4"]))
	assert.False(t, IsRotation([3][3]float64{{-1, 0, 0}, {0, 1, 0}, {0, 0, 1}}), "reflection")
	assert.False(t, IsRotation([3][3]float64{{2, 0, 0}, {0, 1, 0}, {0, 0, 1}}), "scaled")
	assert.False(t, IsRotation([3][3]float64{{1, 1, 0}, {0, 1, 0}, {0, 0, 1}}), "sheared")
}
