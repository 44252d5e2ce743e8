package spatial

import "github.com/go-gl/mathgl/mgl64"

// Transform is a Plücker coordinate transform {E, R}: E rotates source
// coordinates into target coordinates, R is the target origin expressed
// in source coordinates. Motion vectors map as v' = [E w, E(l - R x w)].
type Transform struct {
	E mgl64.Mat3
	R mgl64.Vec3
}

func IdentityTransform() Transform {
	return Transform{E: mgl64.Ident3()}
}

// Rotation builds a pure rotation transform from a coordinate rotation
// matrix (source to target).
func Rotation(e mgl64.Mat3) Transform {
	return Transform{E: e}
}

// Translation builds a pure translation transform.
func Translation(r mgl64.Vec3) Transform {
	return Transform{E: mgl64.Ident3(), R: r}
}

// RotationX is the coordinate transform of a frame rotated by angle
// about the source x axis. RotationY and RotationZ are analogous.
func RotationX(angle float64) Transform {
	return Transform{E: mgl64.Rotate3DX(angle).Transpose()}
}

func RotationY(angle float64) Transform {
	return Transform{E: mgl64.Rotate3DY(angle).Transpose()}
}

func RotationZ(angle float64) Transform {
	return Transform{E: mgl64.Rotate3DZ(angle).Transpose()}
}

// RotationAxis is the coordinate transform of a frame rotated by angle
// about an arbitrary unit axis.
func RotationAxis(angle float64, axis mgl64.Vec3) Transform {
	q := mgl64.QuatRotate(angle, axis)
	return Transform{E: q.Mat4().Mat3().Transpose()}
}

// Skew returns the cross-product matrix of v.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

// Apply transforms a motion vector from source to target coordinates.
func (x Transform) Apply(v Vector) Vector {
	w, l := v.Angular(), v.Linear()
	return NewVector(
		x.E.Mul3x1(w),
		x.E.Mul3x1(l.Sub(x.R.Cross(w))),
	)
}

// ApplyTranspose transforms a force vector from target back to source
// coordinates (multiplication by the transpose of ToMatrix).
func (x Transform) ApplyTranspose(f Vector) Vector {
	et := x.E.Transpose()
	lin := et.Mul3x1(f.Linear())
	return NewVector(
		et.Mul3x1(f.Angular()).Add(x.R.Cross(lin)),
		lin,
	)
}

// ApplyAdjoint transforms a force vector from source to target
// coordinates.
func (x Transform) ApplyAdjoint(f Vector) Vector {
	return NewVector(
		x.E.Mul3x1(f.Angular().Sub(x.R.Cross(f.Linear()))),
		x.E.Mul3x1(f.Linear()),
	)
}

// Mul composes two transforms: (x.Mul(y)).Apply(v) == x.Apply(y.Apply(v)).
func (x Transform) Mul(y Transform) Transform {
	return Transform{
		E: x.E.Mul3(y.E),
		R: y.R.Add(y.E.Transpose().Mul3x1(x.R)),
	}
}

// Inverse returns the transform mapping target coordinates back to
// source coordinates.
func (x Transform) Inverse() Transform {
	return Transform{
		E: x.E.Transpose(),
		R: x.E.Mul3x1(x.R).Mul(-1),
	}
}

// ToMatrix returns the 6x6 motion-vector representation.
func (x Transform) ToMatrix() Matrix {
	erx := x.E.Mul3(Skew(x.R))
	var m Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = x.E.At(i, j)
			m[i+3][j] = -erx.At(i, j)
			m[i+3][j+3] = x.E.At(i, j)
		}
	}
	return m
}

// ToMatrixAdjoint returns the 6x6 force-vector representation.
func (x Transform) ToMatrixAdjoint() Matrix {
	erx := x.E.Mul3(Skew(x.R))
	var m Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = x.E.At(i, j)
			m[i][j+3] = -erx.At(i, j)
			m[i+3][j+3] = x.E.At(i, j)
		}
	}
	return m
}

// ToMatrixTranspose returns ToMatrix transposed.
func (x Transform) ToMatrixTranspose() Matrix {
	return x.ToMatrix().Transpose()
}
