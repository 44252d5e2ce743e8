package sim

import (
	"github.com/san-kum/rbsim/internal/model"
)

// Energy returns the total mechanical energy of the model in the given
// state. Body kinematics are refreshed as a side effect.
func Energy(m *model.Model, q, qdot []float64) float64 {
	m.UpdateKinematicsCustom(q, qdot, nil)

	kinetic := 0.0
	potential := 0.0
	for i := 1; i < m.NumBodies(); i++ {
		kinetic += 0.5 * m.V[i].Dot(m.I[i].MulVec(m.V[i]))
		com := m.BodyToBase(i, m.Bodies[i].COM)
		potential -= m.Bodies[i].Mass * m.Gravity.Dot(com)
	}
	return kinetic + potential
}
