package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// ApplyConstraintForces resolves joint accelerations under the
// external spatial forces in fExt (per movable body, base
// coordinates). It reuses the articulated inertias and joint
// projections cached by a preceding ForwardDynamics call at the same
// state and only rebuilds the bias forces, so it is much cheaper than
// a full articulated-body pass.
func ApplyConstraintForces(m *model.Model, tau, qddot []float64, fExt []spatial.Vector) {
	n := m.NumBodies()
	for i := 1; i < n; i++ {
		m.IA[i] = m.I[i]
		m.PA[i] = spatial.CrossForce(m.V[i], m.I[i].MulVec(m.V[i]))
		if !fExt[i].IsZero() {
			m.PA[i] = m.PA[i].Sub(m.XBase[i].ApplyAdjoint(fExt[i]))
		}
	}

	for i := n - 1; i > 0; i-- {
		p := m.Parent[i]
		j := m.Joints[i]
		switch j.Kind {
		case model.JointRevolute, model.JointPrismatic:
			m.UBias[i] = tau[j.DOFIndex] - m.S[i].Dot(m.PA[i])
			if p != 0 {
				ia := m.IA[i].Sub(spatial.OuterScaled(m.U[i], m.U[i], 1/m.D[i]))
				pa := m.PA[i].Add(ia.MulVec(m.CV[i])).Add(m.U[i].Scale(m.UBias[i] / m.D[i]))
				xl := m.XLambda[i]
				m.IA[p] = m.IA[p].Add(xl.ToMatrixTranspose().Mul(ia).Mul(xl.ToMatrix()))
				m.PA[p] = m.PA[p].Add(xl.ApplyTranspose(pa))
			}
		case model.JointSpherical:
			d := j.DOFIndex
			tau3 := mgl64.Vec3{tau[d], tau[d+1], tau[d+2]}
			m.UBias3[i] = tau3.Sub(m.S3[i].TransMulVec(m.PA[i]))
			if p != 0 {
				ia := m.IA[i].Sub(spatial.Sandwich63(m.U3[i], m.DInv3[i]))
				pa := m.PA[i].Add(ia.MulVec(m.CV[i])).Add(m.U3[i].MulVec3(m.DInv3[i].Mul3x1(m.UBias3[i])))
				xl := m.XLambda[i]
				m.IA[p] = m.IA[p].Add(xl.ToMatrixTranspose().Mul(ia).Mul(xl.ToMatrix()))
				m.PA[p] = m.PA[p].Add(xl.ApplyTranspose(pa))
			}
		case model.JointCustom:
			st := m.Custom[j.CustomIndex]
			nd := j.DOF
			for a := 0; a < nd; a++ {
				st.UBias.SetVec(a, tau[j.DOFIndex+a]-st.S[a].Dot(m.PA[i]))
			}
			if p != 0 {
				ia := m.IA[i]
				for a := 0; a < nd; a++ {
					for b := 0; b < nd; b++ {
						ia = ia.Sub(spatial.OuterScaled(st.U[a], st.U[b], st.DInv.At(a, b)))
					}
				}
				pa := m.PA[i].Add(ia.MulVec(m.CV[i]))
				for a := 0; a < nd; a++ {
					s := 0.0
					for b := 0; b < nd; b++ {
						s += st.DInv.At(a, b) * st.UBias.AtVec(b)
					}
					pa = pa.Add(st.U[a].Scale(s))
				}
				xl := m.XLambda[i]
				m.IA[p] = m.IA[p].Add(xl.ToMatrixTranspose().Mul(ia).Mul(xl.ToMatrix()))
				m.PA[p] = m.PA[p].Add(xl.ApplyTranspose(pa))
			}
		}
	}

	m.A[0] = spatial.NewVector(mgl64.Vec3{}, m.Gravity.Mul(-1))
	accelerationPass(m, qddot)
}

// AccelerationDeltas propagates the acceleration change caused by a
// single spatial test force f applied to body (base coordinates),
// reusing the articulated quantities cached by a preceding
// ForwardDynamics call. The delta buffers are zeroed on entry so
// successive test forces cannot contaminate each other. dqddot
// receives only the acceleration delta.
func AccelerationDeltas(m *model.Model, body int, f spatial.Vector, dqddot []float64, dPA, dA []spatial.Vector, dU []float64, dU3 []mgl64.Vec3) {
	n := m.NumBodies()
	spatial.ZeroAll(dPA)
	spatial.ZeroAll(dA)
	for i := range dU {
		dU[i] = 0
	}
	for i := range dU3 {
		dU3[i] = mgl64.Vec3{}
	}
	for _, st := range m.Custom {
		st.DeltaU.Zero()
	}

	dPA[body] = m.XBase[body].ApplyAdjoint(f).Scale(-1)
	for i := body; i > 0; i = m.Parent[i] {
		p := m.Parent[i]
		j := m.Joints[i]
		switch j.Kind {
		case model.JointRevolute, model.JointPrismatic:
			dU[i] = -m.S[i].Dot(dPA[i])
			if p != 0 {
				pa := dPA[i].Add(m.U[i].Scale(dU[i] / m.D[i]))
				dPA[p] = dPA[p].Add(m.XLambda[i].ApplyTranspose(pa))
			}
		case model.JointSpherical:
			dU3[i] = m.S3[i].TransMulVec(dPA[i]).Mul(-1)
			if p != 0 {
				pa := dPA[i].Add(m.U3[i].MulVec3(m.DInv3[i].Mul3x1(dU3[i])))
				dPA[p] = dPA[p].Add(m.XLambda[i].ApplyTranspose(pa))
			}
		case model.JointCustom:
			st := m.Custom[j.CustomIndex]
			nd := j.DOF
			for a := 0; a < nd; a++ {
				st.DeltaU.SetVec(a, -st.S[a].Dot(dPA[i]))
			}
			if p != 0 {
				pa := dPA[i]
				for a := 0; a < nd; a++ {
					s := 0.0
					for b := 0; b < nd; b++ {
						s += st.DInv.At(a, b) * st.DeltaU.AtVec(b)
					}
					pa = pa.Add(st.U[a].Scale(s))
				}
				dPA[p] = dPA[p].Add(m.XLambda[i].ApplyTranspose(pa))
			}
		}
	}

	for i := 1; i < n; i++ {
		p := m.Parent[i]
		xa := m.XLambda[i].Apply(dA[p])
		j := m.Joints[i]
		switch j.Kind {
		case model.JointRevolute, model.JointPrismatic:
			qdd := (dU[i] - m.U[i].Dot(xa)) / m.D[i]
			dqddot[j.DOFIndex] = qdd
			dA[i] = xa.Add(m.S[i].Scale(qdd))
		case model.JointSpherical:
			d := j.DOFIndex
			qdd := m.DInv3[i].Mul3x1(dU3[i].Sub(mgl64.Vec3{
				m.U3[i][0].Dot(xa), m.U3[i][1].Dot(xa), m.U3[i][2].Dot(xa),
			}))
			dqddot[d], dqddot[d+1], dqddot[d+2] = qdd[0], qdd[1], qdd[2]
			dA[i] = xa.Add(m.S3[i].MulVec3(qdd))
		case model.JointCustom:
			st := m.Custom[j.CustomIndex]
			nd := j.DOF
			for a := 0; a < nd; a++ {
				s := 0.0
				for b := 0; b < nd; b++ {
					s += st.DInv.At(a, b) * (st.DeltaU.AtVec(b) - st.U[b].Dot(xa))
				}
				dqddot[j.DOFIndex+a] = s
			}
			for a := 0; a < nd; a++ {
				xa = xa.Add(st.S[a].Scale(dqddot[j.DOFIndex+a]))
			}
			dA[i] = xa
		}
	}
}
