// Package dynamics implements the joint-space dynamics recursions over
// a kinematic tree: the composite-rigid-body algorithm for the inertia
// matrix, the recursive Newton-Euler algorithm for bias forces, the
// articulated-body algorithm for unconstrained forward dynamics, and a
// branch-sparse factorization of the inertia matrix.
package dynamics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// CompositeRigidBody writes the joint-space inertia matrix into h,
// which must be sized DOFCount x DOFCount. With updateKinematics false
// the body transforms from a previous kinematics pass are reused.
func CompositeRigidBody(m *model.Model, q []float64, h *mat.Dense, updateKinematics bool) {
	if updateKinematics {
		m.UpdateKinematicsCustom(q, nil, nil)
	}
	h.Zero()

	n := m.NumBodies()
	for i := 1; i < n; i++ {
		m.IC[i] = m.I[i]
	}

	for i := n - 1; i > 0; i-- {
		if p := m.Parent[i]; p != 0 {
			xl := m.XLambda[i]
			m.IC[p] = m.IC[p].Add(xl.ToMatrixTranspose().Mul(m.IC[i]).Mul(xl.ToMatrix()))
		}
		m.JointColumns(i, func(di int, si spatial.Vector) {
			f := m.IC[i].MulVec(si)
			m.JointColumns(i, func(dj int, sj spatial.Vector) {
				if dj <= di {
					v := sj.Dot(f)
					h.Set(di, dj, v)
					h.Set(dj, di, v)
				}
			})
			for j := i; m.Parent[j] != 0; {
				f = m.XLambda[j].ApplyTranspose(f)
				j = m.Parent[j]
				m.JointColumns(j, func(dj int, sj spatial.Vector) {
					v := sj.Dot(f)
					h.Set(di, dj, v)
					h.Set(dj, di, v)
				})
			}
		})
	}
}
