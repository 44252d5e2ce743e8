package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// NonlinearEffects writes the Coriolis, centrifugal and gravity terms
// of the equations of motion into c, sized DOFCount. fExt holds
// external forces per movable body in base coordinates; it may be nil.
// Body velocities and accelerations are left in the model's workspace
// with the gravity offset folded in; base transforms are not touched,
// so fExt is resolved against the transforms of the last kinematics
// pass.
func NonlinearEffects(m *model.Model, q, qdot []float64, c []float64, fExt []spatial.Vector) {
	n := m.NumBodies()
	m.V[0] = spatial.Vector{}
	m.A[0] = spatial.NewVector(mgl64.Vec3{}, m.Gravity.Mul(-1))

	for i := 1; i < n; i++ {
		p := m.Parent[i]
		vj := m.JCalc(i, q, qdot)
		m.V[i] = m.XLambda[i].Apply(m.V[p]).Add(vj)
		m.CV[i] = m.JointCJ(i).Add(spatial.CrossMotion(m.V[i], vj))
		m.A[i] = m.XLambda[i].Apply(m.A[p]).Add(m.CV[i])
		m.F[i] = m.I[i].MulVec(m.A[i]).Add(spatial.CrossForce(m.V[i], m.I[i].MulVec(m.V[i])))
		if fExt != nil && !fExt[i].IsZero() {
			m.F[i] = m.F[i].Sub(m.XBase[i].ApplyAdjoint(fExt[i]))
		}
	}

	for i := n - 1; i > 0; i-- {
		m.JointColumns(i, func(d int, s spatial.Vector) {
			c[d] = s.Dot(m.F[i])
		})
		if p := m.Parent[i]; p != 0 {
			m.F[p] = m.F[p].Add(m.XLambda[i].ApplyTranspose(m.F[i]))
		}
	}
}

// InverseDynamics writes the generalized forces realizing qddot into
// tau, sized DOFCount. fExt follows the NonlinearEffects convention.
func InverseDynamics(m *model.Model, q, qdot, qddot, tau []float64, fExt []spatial.Vector) {
	n := m.NumBodies()
	m.V[0] = spatial.Vector{}
	m.A[0] = spatial.NewVector(mgl64.Vec3{}, m.Gravity.Mul(-1))

	for i := 1; i < n; i++ {
		p := m.Parent[i]
		vj := m.JCalc(i, q, qdot)
		m.XBase[i] = m.XLambda[i].Mul(m.XBase[p])
		m.V[i] = m.XLambda[i].Apply(m.V[p]).Add(vj)
		m.CV[i] = m.JointCJ(i).Add(spatial.CrossMotion(m.V[i], vj))
		m.A[i] = m.XLambda[i].Apply(m.A[p]).Add(m.CV[i])
		m.JointColumns(i, func(d int, s spatial.Vector) {
			m.A[i] = m.A[i].Add(s.Scale(qddot[d]))
		})
		m.F[i] = m.I[i].MulVec(m.A[i]).Add(spatial.CrossForce(m.V[i], m.I[i].MulVec(m.V[i])))
		if fExt != nil && !fExt[i].IsZero() {
			m.F[i] = m.F[i].Sub(m.XBase[i].ApplyAdjoint(fExt[i]))
		}
	}

	for i := n - 1; i > 0; i-- {
		m.JointColumns(i, func(d int, s spatial.Vector) {
			tau[d] = s.Dot(m.F[i])
		})
		if p := m.Parent[i]; p != 0 {
			m.F[p] = m.F[p].Add(m.XLambda[i].ApplyTranspose(m.F[i]))
		}
	}
}
