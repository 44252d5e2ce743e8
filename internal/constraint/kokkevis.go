package constraint

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/dynamics"
	"github.com/san-kum/rbsim/internal/linalg"
	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// ForwardDynamicsKokkevis resolves one-sided contact forces with the
// incremental test-force method: a baseline unconstrained pass, one
// cheap acceleration-delta propagation per contact direction to build
// the contact coupling matrix K, a single dense solve of K lambda = a,
// and a final force-application sweep. It never factors the full
// augmented system and requires every registered constraint to be a
// contact.
func (s *Set) ForwardDynamicsKokkevis(m *model.Model, q, qdot, tau, qddot []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize || len(qdot) != m.DOFCount || len(tau) != m.DOFCount || len(qddot) != m.DOFCount {
		return ErrSize
	}
	if len(s.contacts) != len(s.Constraints) {
		return ErrMixedSet
	}
	mr := s.Rows()
	if mr == 0 {
		dynamics.ForwardDynamics(m, q, qdot, tau, qddot, nil)
		return nil
	}

	// Baseline accelerations and per-row point accelerations.
	dynamics.ForwardDynamics(m, q, qdot, tau, s.qddot0, nil)
	m.UpdateKinematicsCustom(nil, nil, s.qddot0)
	for _, c := range s.contacts {
		pa := m.PointAcceleration(c.MovableBody(), c.LocalPoint())
		for k, n := range c.Normals {
			row := c.RowOffset() + k
			s.pointAccel0[row] = pa
			s.aVec[row] = s.Acceleration[row] - n.Dot(pa)
		}
	}

	// Coupling matrix: one unit test force per row, propagated through
	// the cached articulated quantities.
	for _, c := range s.contacts {
		for k := range c.Normals {
			ti := c.RowOffset() + k
			s.fT[ti] = c.ForceJacobian(m, k)

			dynamics.AccelerationDeltas(m, c.MovableBody(), s.fT[ti], s.qddotT, s.dPA, s.dA, s.dU, s.dU3)
			for i := range s.qddotT {
				s.qddotT[i] += s.qddot0[i]
			}
			m.UpdateKinematicsCustom(nil, nil, s.qddotT)

			for _, d := range s.contacts {
				pa := m.PointAcceleration(d.MovableBody(), d.LocalPoint())
				for l, n := range d.Normals {
					row := d.RowOffset() + l
					s.kMat.Set(ti, row, n.Dot(pa.Sub(s.pointAccel0[row])))
				}
			}
		}
	}

	lam := mat.NewVecDense(mr, nil)
	if err := linalg.Solve(s.kMat, mat.NewVecDense(mr, s.aVec), lam, s.Solver); err != nil {
		return fmt.Errorf("contact coupling solve: %w", err)
	}

	spatial.ZeroAll(s.fExt)
	for _, c := range s.contacts {
		for k := range c.Normals {
			row := c.RowOffset() + k
			s.Force[row] = lam.AtVec(row)
			s.fExt[c.MovableBody()] = s.fExt[c.MovableBody()].Add(s.fT[row].Scale(s.Force[row]))
		}
	}

	dynamics.ApplyConstraintForces(m, tau, qddot, s.fExt)
	return nil
}
