package spatial

import "github.com/go-gl/mathgl/mgl64"

// Inertia builds the 6x6 spatial inertia of a rigid body from its mass,
// center of mass (body coordinates) and rotational inertia about the
// center of mass.
func Inertia(mass float64, com mgl64.Vec3, icom mgl64.Mat3) Matrix {
	cx := Skew(com)
	top := icom.Add(cx.Mul3(cx.Transpose()).Mul(mass))
	mcx := cx.Mul(mass)
	mcxT := mcx.Transpose()

	var m Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = top.At(i, j)
			m[i][j+3] = mcx.At(i, j)
			m[i+3][j] = mcxT.At(i, j)
		}
		m[i+3][i+3] = mass
	}
	return m
}
