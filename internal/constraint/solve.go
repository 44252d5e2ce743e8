package constraint

import (
	"fmt"

	"github.com/san-kum/rbsim/internal/dynamics"
	"github.com/san-kum/rbsim/internal/linalg"
	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// The three solve strategies consume the assembled H, G, the force
// residual c and bias gamma, and produce accelerations qddot and
// constraint-space forces lambda satisfying
//
//	H qddot - G' lambda = c
//	G qddot             = gamma
//
// lambda is the force exerted by the constraints in every strategy.

// SolveDirect solves the augmented KKT system with the set's dense
// factorization.
func (s *Set) SolveDirect(c, gamma, qddot, lambda []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	nd, mr := s.nDOF, s.Rows()
	if len(c) != nd || len(gamma) != mr || len(qddot) != nd || len(lambda) != mr {
		return ErrSize
	}

	s.kktA.Zero()
	for i := 0; i < nd; i++ {
		for j := 0; j < nd; j++ {
			s.kktA.Set(i, j, s.H.At(i, j))
		}
		s.kktB.SetVec(i, c[i])
	}
	for r := 0; r < mr; r++ {
		for j := 0; j < nd; j++ {
			s.kktA.Set(nd+r, j, s.G.At(r, j))
			s.kktA.Set(j, nd+r, s.G.At(r, j))
		}
		s.kktB.SetVec(nd+r, gamma[r])
	}

	if err := linalg.Solve(s.kktA, s.kktB, s.kktX, s.Solver); err != nil {
		return err
	}
	for i := 0; i < nd; i++ {
		qddot[i] = s.kktX.AtVec(i)
	}
	for r := 0; r < mr; r++ {
		lambda[r] = -s.kktX.AtVec(nd + r)
	}
	return nil
}

// SolveRangeSpaceSparse factors H = L'L along the kinematic tree and
// reduces the system onto constraint space, solving the dense part
// with Cholesky. H must be positive definite.
func (s *Set) SolveRangeSpaceSparse(m *model.Model, c, gamma, qddot, lambda []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	nd, mr := s.nDOF, s.Rows()
	if len(c) != nd || len(gamma) != mr || len(qddot) != nd || len(lambda) != mr {
		return ErrSize
	}

	s.hFac.Copy(s.H)
	dynamics.FactorizeLTL(s.hFac, m.DOFParent)

	// yMat = L^-T G', zVec = L^-T c.
	for r := 0; r < mr; r++ {
		for j := 0; j < nd; j++ {
			s.gCol[j] = s.G.At(r, j)
		}
		dynamics.SolveLTx(s.hFac, m.DOFParent, s.gCol)
		for j := 0; j < nd; j++ {
			s.yMat.Set(j, r, s.gCol[j])
		}
	}
	copy(s.zVec, c)
	dynamics.SolveLTx(s.hFac, m.DOFParent, s.zVec)

	// K = Y'Y, a = gamma - Y'z.
	for i := 0; i < mr; i++ {
		for j := i; j < mr; j++ {
			v := 0.0
			for k := 0; k < nd; k++ {
				v += s.yMat.At(k, i) * s.yMat.At(k, j)
			}
			s.kSym.SetSym(i, j, v)
		}
		s.aVec[i] = gamma[i]
		for k := 0; k < nd; k++ {
			s.aVec[i] -= s.yMat.At(k, i) * s.zVec[k]
		}
		s.vRows2.SetVec(i, s.aVec[i])
	}

	if !s.cholFac.Factorize(s.kSym) {
		return fmt.Errorf("%w: constraint coupling matrix", linalg.ErrSingular)
	}
	if err := s.cholFac.SolveVecTo(s.vRows, s.vRows2); err != nil {
		return fmt.Errorf("%w: %v", linalg.ErrSingular, err)
	}
	for r := 0; r < mr; r++ {
		lambda[r] = s.vRows.AtVec(r)
	}

	// qddot = H^-1 (c + G' lambda).
	for j := 0; j < nd; j++ {
		qddot[j] = c[j]
		for r := 0; r < mr; r++ {
			qddot[j] += s.G.At(r, j) * lambda[r]
		}
	}
	dynamics.SolveLTx(s.hFac, m.DOFParent, qddot)
	dynamics.SolveLx(s.hFac, m.DOFParent, qddot)
	return nil
}

// SolveNullSpace factors G' with Householder QR, splitting the
// accelerations into a range-space part fixed by gamma and a
// null-space part solved against H.
func (s *Set) SolveNullSpace(c, gamma, qddot, lambda []float64) error {
	if !s.bound {
		return ErrUnbound
	}
	nd, mr := s.nDOF, s.Rows()
	if len(c) != nd || len(gamma) != mr || len(qddot) != nd || len(lambda) != mr {
		return ErrSize
	}

	for r := 0; r < mr; r++ {
		for j := 0; j < nd; j++ {
			s.gtMat.Set(j, r, s.G.At(r, j))
		}
	}
	s.qrFac.Factorize(s.gtMat)
	s.qrFac.QTo(s.qTall)

	y := s.qTall.Slice(0, nd, 0, mr)
	z := s.qTall.Slice(0, nd, mr, nd)

	// (G Y) qddotY = gamma.
	s.gyMat.Mul(s.G, y)
	for r := 0; r < mr; r++ {
		s.vRows2.SetVec(r, gamma[r])
	}
	if err := linalg.Solve(s.gyMat, s.vRows2, s.vRows, s.Solver); err != nil {
		return err
	}

	// (Z'HZ) qddotZ = Z'(c - H Y qddotY), with Y qddotY in vDOF.
	s.vDOF.MulVec(y, s.vRows)
	s.vDOF2.MulVec(s.H, s.vDOF)
	for i := 0; i < nd; i++ {
		s.vDOF2.SetVec(i, c[i]-s.vDOF2.AtVec(i))
	}
	s.vNull.MulVec(z.T(), s.vDOF2)

	s.zhMat.Mul(z.T(), s.H)
	nz := nd - mr
	for i := 0; i < nz; i++ {
		for j := i; j < nz; j++ {
			v := 0.0
			for k := 0; k < nd; k++ {
				v += s.zhMat.At(i, k) * z.At(k, j)
			}
			s.nzSym.SetSym(i, j, v)
		}
	}
	if !s.cholFac.Factorize(s.nzSym) {
		return fmt.Errorf("%w: null-space projected inertia", linalg.ErrSingular)
	}
	if err := s.cholFac.SolveVecTo(s.vNull2, s.vNull); err != nil {
		return fmt.Errorf("%w: %v", linalg.ErrSingular, err)
	}

	s.vDOF2.MulVec(z, s.vNull2)
	for i := 0; i < nd; i++ {
		qddot[i] = s.vDOF.AtVec(i) + s.vDOF2.AtVec(i)
	}

	// (G Y) lambda = Y'(H qddot - c).
	for i := 0; i < nd; i++ {
		v := 0.0
		for j := 0; j < nd; j++ {
			v += s.H.At(i, j) * qddot[j]
		}
		s.vDOF.SetVec(i, v-c[i])
	}
	s.vRows2.MulVec(y.T(), s.vDOF)
	if err := linalg.Solve(s.gyMat, s.vRows2, s.vRows, s.Solver); err != nil {
		return err
	}
	for r := 0; r < mr; r++ {
		lambda[r] = s.vRows.AtVec(r)
	}
	return nil
}

func (s *Set) forceResidual(tau []float64) []float64 {
	for i := range s.cRes {
		s.cRes[i] = tau[i] - s.C[i]
	}
	return s.cRes
}

// ForwardDynamicsDirect assembles the constrained system and resolves
// it through the augmented KKT solve, writing accelerations into qddot
// and constraint forces into Force.
func (s *Set) ForwardDynamicsDirect(m *model.Model, q, qdot, tau, qddot []float64, fExt []spatial.Vector) error {
	if err := s.CalcSystemVariables(m, q, qdot, tau, fExt); err != nil {
		return err
	}
	return s.SolveDirect(s.forceResidual(tau), s.Gamma, qddot, s.Force)
}

// ForwardDynamicsRangeSpaceSparse is ForwardDynamicsDirect with the
// branch-sparse range-space strategy.
func (s *Set) ForwardDynamicsRangeSpaceSparse(m *model.Model, q, qdot, tau, qddot []float64, fExt []spatial.Vector) error {
	if err := s.CalcSystemVariables(m, q, qdot, tau, fExt); err != nil {
		return err
	}
	return s.SolveRangeSpaceSparse(m, s.forceResidual(tau), s.Gamma, qddot, s.Force)
}

// ForwardDynamicsNullSpace is ForwardDynamicsDirect with the
// null-space strategy.
func (s *Set) ForwardDynamicsNullSpace(m *model.Model, q, qdot, tau, qddot []float64, fExt []spatial.Vector) error {
	if err := s.CalcSystemVariables(m, q, qdot, tau, fExt); err != nil {
		return err
	}
	return s.SolveNullSpace(s.forceResidual(tau), s.Gamma, qddot, s.Force)
}
