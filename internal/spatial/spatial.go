// Package spatial implements the 6D spatial-vector algebra used by the
// dynamics packages: motion and force vectors, 6x6 spatial matrices,
// Plücker coordinate transforms and rigid-body inertias. Angular
// components occupy indices 0..2, linear components 3..5.
package spatial

import "github.com/go-gl/mathgl/mgl64"

// Vector is a 6D spatial motion or force vector.
type Vector [6]float64

// NewVector assembles a spatial vector from angular and linear parts.
func NewVector(ang, lin mgl64.Vec3) Vector {
	return Vector{ang[0], ang[1], ang[2], lin[0], lin[1], lin[2]}
}

func (v Vector) Angular() mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }
func (v Vector) Linear() mgl64.Vec3  { return mgl64.Vec3{v[3], v[4], v[5]} }

func (v Vector) Add(u Vector) Vector {
	for i := range v {
		v[i] += u[i]
	}
	return v
}

func (v Vector) Sub(u Vector) Vector {
	for i := range v {
		v[i] -= u[i]
	}
	return v
}

func (v Vector) Scale(s float64) Vector {
	for i := range v {
		v[i] *= s
	}
	return v
}

func (v Vector) Dot(u Vector) float64 {
	var d float64
	for i := range v {
		d += v[i] * u[i]
	}
	return d
}

func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// CrossMotion computes the spatial motion cross product v x u.
func CrossMotion(v, u Vector) Vector {
	w, l := v.Angular(), v.Linear()
	return NewVector(
		w.Cross(u.Angular()),
		w.Cross(u.Linear()).Add(l.Cross(u.Angular())),
	)
}

// CrossForce computes the spatial force cross product v x* f.
func CrossForce(v, f Vector) Vector {
	w, l := v.Angular(), v.Linear()
	return NewVector(
		w.Cross(f.Angular()).Add(l.Cross(f.Linear())),
		w.Cross(f.Linear()),
	)
}

// ZeroAll clears a slice of spatial vectors in place.
func ZeroAll(vs []Vector) {
	for i := range vs {
		vs[i] = Vector{}
	}
}

// Matrix is a dense 6x6 spatial matrix, row-major.
type Matrix [6][6]float64

func Identity() Matrix {
	var m Matrix
	for i := 0; i < 6; i++ {
		m[i][i] = 1
	}
	return m
}

func (m Matrix) Add(n Matrix) Matrix {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] += n[i][j]
		}
	}
	return m
}

func (m Matrix) Sub(n Matrix) Matrix {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] -= n[i][j]
		}
	}
	return m
}

func (m Matrix) Scale(s float64) Matrix {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] *= s
		}
	}
	return m
}

func (m Matrix) Transpose() Matrix {
	var t Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

func (m Matrix) MulVec(v Vector) Vector {
	var r Vector
	for i := 0; i < 6; i++ {
		var s float64
		for j := 0; j < 6; j++ {
			s += m[i][j] * v[j]
		}
		r[i] = s
	}
	return r
}

func (m Matrix) Mul(n Matrix) Matrix {
	var r Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			var s float64
			for k := 0; k < 6; k++ {
				s += m[i][k] * n[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// OuterScaled computes s * u v^T.
func OuterScaled(u, v Vector, s float64) Matrix {
	var m Matrix
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] = s * u[i] * v[j]
		}
	}
	return m
}

// Matrix63 is a 6x3 block stored as three spatial column vectors. It is
// the motion subspace of a 3-DoF joint and the shape of the associated
// articulated-body quantities.
type Matrix63 [3]Vector

// MulVec3 computes the linear combination of the columns by v.
func (m Matrix63) MulVec3(v mgl64.Vec3) Vector {
	var r Vector
	for c := 0; c < 3; c++ {
		for i := 0; i < 6; i++ {
			r[i] += m[c][i] * v[c]
		}
	}
	return r
}

// TransMulVec computes m^T f, a 3-vector of column dot products.
func (m Matrix63) TransMulVec(f Vector) mgl64.Vec3 {
	return mgl64.Vec3{m[0].Dot(f), m[1].Dot(f), m[2].Dot(f)}
}

// Mul63 computes the matrix product a * m column by column.
func (a Matrix) Mul63(m Matrix63) Matrix63 {
	var r Matrix63
	for c := 0; c < 3; c++ {
		r[c] = a.MulVec(m[c])
	}
	return r
}

// TransMul63 computes a^T b, a 3x3 matrix of column dot products.
func (a Matrix63) TransMul63(b Matrix63) mgl64.Mat3 {
	var m mgl64.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, a[i].Dot(b[j]))
		}
	}
	return m
}

// Sandwich63 computes u d u^T as a 6x6 matrix, the 3-DoF analogue of
// OuterScaled.
func Sandwich63(u Matrix63, d mgl64.Mat3) Matrix {
	var m Matrix
	for a := 0; a < 6; a++ {
		for b := 0; b < 6; b++ {
			var s float64
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					s += u[i][a] * d.At(i, j) * u[j][b]
				}
			}
			m[a][b] = s
		}
	}
	return m
}
