package constraint

import (
	"math"

	"github.com/san-kum/rbsim/internal/linalg"
	"github.com/san-kum/rbsim/internal/model"
)

// CalcAssemblyQ projects qInit onto the position-constraint manifold
// with a weighted Gauss-Newton iteration, writing the corrected
// configuration into qOut. weights penalize displacement per degree of
// freedom. It reports convergence; running out of iterations or
// stalling on a step smaller than the tolerance is a recoverable
// outcome, with qOut holding the best iterate.
func (s *Set) CalcAssemblyQ(m *model.Model, qInit, weights []float64, tol float64, maxIter int, qOut []float64) (bool, error) {
	if !s.bound {
		return false, ErrUnbound
	}
	if len(qInit) != m.QSize || len(qOut) != m.QSize || len(weights) != m.DOFCount {
		return false, ErrSize
	}
	nd, mr := s.nDOF, s.Rows()
	copy(qOut, qInit)
	delta := make([]float64, nd)

	for it := 0; it < maxIter; it++ {
		m.UpdateKinematicsCustom(qOut, nil, nil)
		for _, c := range s.Constraints {
			c.CalcPositionError(m, qOut, s.Err)
		}
		if norm(s.Err) < tol {
			return true, nil
		}

		s.G.Zero()
		for _, c := range s.Constraints {
			c.CalcJacobian(m, qOut, s.G)
		}

		s.kktA.Zero()
		for i := 0; i < nd; i++ {
			s.kktA.Set(i, i, weights[i])
			s.kktB.SetVec(i, 0)
		}
		for r := 0; r < mr; r++ {
			for j := 0; j < nd; j++ {
				s.kktA.Set(nd+r, j, s.G.At(r, j))
				s.kktA.Set(j, nd+r, s.G.At(r, j))
			}
			s.kktB.SetVec(nd+r, -s.Err[r])
		}
		if err := linalg.Solve(s.kktA, s.kktB, s.kktX, s.Solver); err != nil {
			return false, err
		}

		for i := 0; i < nd; i++ {
			delta[i] = s.kktX.AtVec(i)
		}
		m.IntegrateQ(qOut, delta, 1)
		if norm(delta) < tol {
			return false, nil
		}
	}
	return false, nil
}

// CalcAssemblyQDot projects qdotInit onto the velocity-constraint
// manifold at configuration q. Velocity constraints are linear, so a
// single weighted solve is exact.
func (s *Set) CalcAssemblyQDot(m *model.Model, q, qdotInit, weights []float64, qdotOut []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	if len(q) != m.QSize || len(qdotInit) != m.DOFCount || len(qdotOut) != m.DOFCount || len(weights) != m.DOFCount {
		return ErrSize
	}
	nd, mr := s.nDOF, s.Rows()

	m.UpdateKinematicsCustom(q, nil, nil)
	s.G.Zero()
	for _, c := range s.Constraints {
		c.CalcJacobian(m, q, s.G)
	}

	s.kktA.Zero()
	for i := 0; i < nd; i++ {
		s.kktA.Set(i, i, weights[i])
		s.kktB.SetVec(i, weights[i]*qdotInit[i])
	}
	for r := 0; r < mr; r++ {
		for j := 0; j < nd; j++ {
			s.kktA.Set(nd+r, j, s.G.At(r, j))
			s.kktA.Set(j, nd+r, s.G.At(r, j))
		}
		s.kktB.SetVec(nd+r, 0)
	}
	if err := linalg.Solve(s.kktA, s.kktB, s.kktX, s.Solver); err != nil {
		return err
	}
	for i := 0; i < nd; i++ {
		qdotOut[i] = s.kktX.AtVec(i)
	}
	return nil
}

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
