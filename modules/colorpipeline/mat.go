package colorpipeline

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingularMatrix is returned when a colour matrix cannot be inverted.
var ErrSingularMatrix = errors.New("colorpipeline: singular matrix")

// Vec2 is a chromaticity coordinate (x, y).
type Vec2 [2]float64

// Vec3 is a tristimulus or camera-space triple.
type Vec3 [3]float64

// Mat3 is a row-major 3×3 matrix applied to column vectors (M·v).
type Mat3 [3][3]float64

// Identity3 is the 3×3 identity.
var Identity3 = Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Diagonal returns diag(v).
func Diagonal(v Vec3) Mat3 {
	return Mat3{{v[0], 0, 0}, {0, v[1], 0}, {0, 0, v[2]}}
}

// MatFromSlice builds a matrix from nine row-major values (the DNG tag order).
func MatFromSlice(s []float64) (Mat3, error) {
	if len(s) != 9 {
		return Mat3{}, fmt.Errorf("colorpipeline: matrix needs 9 values, got %d", len(s))
	}
	var m Mat3
	for i := 0; i < 9; i++ {
		m[i/3][i%3] = s[i]
	}
	return m, nil
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return r
}

// MulVec returns m·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Scale returns m with every entry multiplied by s.
func (m Mat3) Scale(s float64) Mat3 {
	for i := range m {
		for j := range m[i] {
			m[i][j] *= s
		}
	}
	return m
}

// Lerp returns m·(1−t) + to·t.
func (m Mat3) Lerp(to Mat3, t float64) Mat3 {
	var r Mat3
	for i := range m {
		for j := range m[i] {
			r[i][j] = m[i][j]*(1-t) + to[i][j]*t
		}
	}
	return r
}

// Determinant returns det(m).
func (m Mat3) Determinant() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns m⁻¹ or ErrSingularMatrix.
func (m Mat3) Inverse() (Mat3, error) {
	det := m.Determinant()
	if det == 0 || math.IsNaN(det) || math.Abs(det) < 1e-12 {
		return Mat3{}, ErrSingularMatrix
	}
	inv := 1 / det
	return Mat3{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv,
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv,
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv,
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv,
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv,
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv,
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv,
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv,
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv,
		},
	}, nil
}

// MaxEntry returns the largest element of m.
func (m Mat3) MaxEntry() float64 {
	max := m[0][0]
	for i := range m {
		for j := range m[i] {
			if m[i][j] > max {
				max = m[i][j]
			}
		}
	}
	return max
}

// Float32 flattens m row-major for upload as a shader uniform.
func (m Mat3) Float32() [9]float32 {
	var out [9]float32
	for i := 0; i < 9; i++ {
		out[i] = float32(m[i/3][i%3])
	}
	return out
}

// Max returns the largest component.
func (v Vec3) Max() float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}

// Scale returns v·s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Float32 converts v for upload as a shader uniform.
func (v Vec3) Float32() [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
