package constraint

import (
	"github.com/san-kum/rbsim/internal/dynamics"
	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// CalcPositionError recomputes the position-level violations of every
// constraint into Err. With updateKinematics false the current body
// transforms are reused.
func (s *Set) CalcPositionError(m *model.Model, q []float64, updateKinematics bool) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize {
		return ErrSize
	}
	if updateKinematics {
		m.UpdateKinematicsCustom(q, nil, nil)
	}
	for _, c := range s.Constraints {
		c.CalcPositionError(m, q, s.Err)
	}
	return nil
}

// CalcJacobian recomputes the global constraint Jacobian G.
func (s *Set) CalcJacobian(m *model.Model, q []float64, updateKinematics bool) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize {
		return ErrSize
	}
	if updateKinematics {
		m.UpdateKinematicsCustom(q, nil, nil)
	}
	s.G.Zero()
	for _, c := range s.Constraints {
		c.CalcJacobian(m, q, s.G)
	}
	return nil
}

// CalcVelocityError recomputes the velocity-level violations into
// ErrD. The Jacobian must be current.
func (s *Set) CalcVelocityError(m *model.Model, q, qdot []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize || len(qdot) != m.DOFCount {
		return ErrSize
	}
	for _, c := range s.Constraints {
		c.CalcVelocityError(m, q, qdot, s.G, s.ErrD)
	}
	return nil
}

// CalcSystemVariables assembles everything a solve consumes: the bias
// vector C together with refreshed body velocities, the inertia matrix
// H, base transforms, the Jacobian G, both error vectors and the bias
// term Gamma with stabilization folded in. The ordering is load
// bearing: the bias-force pass leaves base transforms stale, so they
// are refreshed before any constraint geometry is evaluated, and Gamma
// consumes the error vectors computed just before it.
func (s *Set) CalcSystemVariables(m *model.Model, q, qdot, tau []float64, fExt []spatial.Vector) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize || len(qdot) != m.DOFCount || len(tau) != m.DOFCount {
		return ErrSize
	}

	dynamics.NonlinearEffects(m, q, qdot, s.C, fExt)
	dynamics.CompositeRigidBody(m, q, s.H, false)

	for i := 1; i < m.NumBodies(); i++ {
		m.XBase[i] = m.XLambda[i].Mul(m.XBase[m.Parent[i]])
	}

	s.G.Zero()
	for _, c := range s.Constraints {
		c.CalcJacobian(m, q, s.G)
	}
	for _, c := range s.Constraints {
		c.CalcPositionError(m, q, s.Err)
		c.CalcVelocityError(m, q, qdot, s.G, s.ErrD)
	}

	// Body accelerations at zero joint acceleration feed the
	// Jacobian-derivative part of Gamma.
	m.UpdateKinematicsCustom(nil, nil, s.qddotZero)
	zero(s.Gamma)
	for _, c := range s.Constraints {
		c.CalcGamma(m, q, qdot, s.G, s.Acceleration, s.Gamma)
		c.AddBaumgarteForces(s.Err, s.ErrD, s.Gamma)
	}
	return nil
}
