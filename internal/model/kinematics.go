package model

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rbsim/internal/spatial"
)

// UpdateKinematics refreshes transforms, velocities and accelerations
// for the full state.
func (m *Model) UpdateKinematics(q, qdot, qddot []float64) {
	m.UpdateKinematicsCustom(q, qdot, qddot)
}

// UpdateKinematicsCustom refreshes only the state slices that are
// non-nil: q alone updates transforms, q+qdot additionally velocities,
// qddot accelerations (reusing the stored velocity terms when q and
// qdot are nil). This mirrors the partial updates the constraint
// assembly relies on.
func (m *Model) UpdateKinematicsCustom(q, qdot, qddot []float64) {
	nb := m.NumBodies()

	if q != nil {
		for i := 1; i < nb; i++ {
			vj := m.JCalc(i, q, qdot)
			p := m.Parent[i]
			m.XBase[i] = m.XLambda[i].Mul(m.XBase[p])
			if qdot != nil {
				m.V[i] = m.XLambda[i].Apply(m.V[p]).Add(vj)
				m.CV[i] = m.JointCJ(i).Add(spatial.CrossMotion(m.V[i], vj))
			}
		}
	}

	if qddot != nil {
		m.A[0] = spatial.Vector{}
		for i := 1; i < nb; i++ {
			p := m.Parent[i]
			m.A[i] = m.XLambda[i].Apply(m.A[p]).Add(m.CV[i]).Add(m.jointAccel(i, qddot))
		}
	}
}

// jointAccel returns S * qddot for joint i.
func (m *Model) jointAccel(i int, qddot []float64) spatial.Vector {
	j := m.Joints[i]
	switch j.Kind {
	case JointRevolute, JointPrismatic:
		return m.S[i].Scale(qddot[j.DOFIndex])
	case JointSpherical:
		d := j.DOFIndex
		return m.S3[i].MulVec3(mgl64.Vec3{qddot[d], qddot[d+1], qddot[d+2]})
	case JointCustom:
		st := m.Custom[j.CustomIndex]
		var a spatial.Vector
		for k := 0; k < j.DOF; k++ {
			a = a.Add(st.S[k].Scale(qddot[j.DOFIndex+k]))
		}
		return a
	}
	return spatial.Vector{}
}
