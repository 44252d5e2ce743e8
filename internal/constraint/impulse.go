package constraint

import (
	"github.com/san-kum/rbsim/internal/dynamics"
	"github.com/san-kum/rbsim/internal/model"
)

// prepareImpulseSystem refreshes kinematics, the Jacobian and the
// inertia matrix at the impact configuration and forms the momentum
// right-hand side H qdotMinus.
func (s *Set) prepareImpulseSystem(m *model.Model, q, qdotMinus []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize || len(qdotMinus) != m.DOFCount {
		return ErrSize
	}
	m.UpdateKinematicsCustom(q, nil, nil)
	s.G.Zero()
	for _, c := range s.Constraints {
		c.CalcJacobian(m, q, s.G)
	}
	dynamics.CompositeRigidBody(m, q, s.H, false)
	for i := 0; i < s.nDOF; i++ {
		s.hqdot[i] = 0
		for j := 0; j < s.nDOF; j++ {
			s.hqdot[i] += s.H.At(i, j) * qdotMinus[j]
		}
	}
	return nil
}

// ComputeImpulsesDirect resolves an instantaneous impact: it solves
// the velocity-jump analogue of the constrained system so the
// post-impact velocities written to qdotPlus meet the per-row VPlus
// targets, and stores the constraint impulses in Impulse.
func (s *Set) ComputeImpulsesDirect(m *model.Model, q, qdotMinus, qdotPlus []float64) error {
	if err := s.prepareImpulseSystem(m, q, qdotMinus); err != nil {
		return err
	}
	return s.SolveDirect(s.hqdot, s.VPlus, qdotPlus, s.Impulse)
}

// ComputeImpulsesRangeSpaceSparse is ComputeImpulsesDirect with the
// branch-sparse range-space strategy.
func (s *Set) ComputeImpulsesRangeSpaceSparse(m *model.Model, q, qdotMinus, qdotPlus []float64) error {
	if err := s.prepareImpulseSystem(m, q, qdotMinus); err != nil {
		return err
	}
	return s.SolveRangeSpaceSparse(m, s.hqdot, s.VPlus, qdotPlus, s.Impulse)
}

// ComputeImpulsesNullSpace is ComputeImpulsesDirect with the
// null-space strategy.
func (s *Set) ComputeImpulsesNullSpace(m *model.Model, q, qdotMinus, qdotPlus []float64) error {
	if err := s.prepareImpulseSystem(m, q, qdotMinus); err != nil {
		return err
	}
	return s.SolveNullSpace(s.hqdot, s.VPlus, qdotPlus, s.Impulse)
}
