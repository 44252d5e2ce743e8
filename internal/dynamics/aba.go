package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// ForwardDynamics computes unconstrained joint accelerations with the
// articulated-body algorithm and writes them into qddot, sized
// DOFCount. fExt holds external forces per movable body in base
// coordinates; it may be nil. The articulated-body quantities are left
// cached on the model so follow-up sweeps can reuse them.
func ForwardDynamics(m *model.Model, q, qdot, tau, qddot []float64, fExt []spatial.Vector) {
	n := m.NumBodies()
	m.V[0] = spatial.Vector{}
	m.A[0] = spatial.NewVector(mgl64.Vec3{}, m.Gravity.Mul(-1))

	for i := 1; i < n; i++ {
		p := m.Parent[i]
		vj := m.JCalc(i, q, qdot)
		m.XBase[i] = m.XLambda[i].Mul(m.XBase[p])
		m.V[i] = m.XLambda[i].Apply(m.V[p]).Add(vj)
		m.CV[i] = m.JointCJ(i).Add(spatial.CrossMotion(m.V[i], vj))
		m.IA[i] = m.I[i]
		m.PA[i] = spatial.CrossForce(m.V[i], m.I[i].MulVec(m.V[i]))
		if fExt != nil && !fExt[i].IsZero() {
			m.PA[i] = m.PA[i].Sub(m.XBase[i].ApplyAdjoint(fExt[i]))
		}
	}

	for i := n - 1; i > 0; i-- {
		p := m.Parent[i]
		j := m.Joints[i]
		switch j.Kind {
		case model.JointRevolute, model.JointPrismatic:
			d := j.DOFIndex
			m.U[i] = m.IA[i].MulVec(m.S[i])
			m.D[i] = m.S[i].Dot(m.U[i])
			m.UBias[i] = tau[d] - m.S[i].Dot(m.PA[i])
			if p != 0 {
				ia := m.IA[i].Sub(spatial.OuterScaled(m.U[i], m.U[i], 1/m.D[i]))
				pa := m.PA[i].Add(ia.MulVec(m.CV[i])).Add(m.U[i].Scale(m.UBias[i] / m.D[i]))
				xl := m.XLambda[i]
				m.IA[p] = m.IA[p].Add(xl.ToMatrixTranspose().Mul(ia).Mul(xl.ToMatrix()))
				m.PA[p] = m.PA[p].Add(xl.ApplyTranspose(pa))
			}
		case model.JointSpherical:
			d := j.DOFIndex
			m.U3[i] = m.IA[i].Mul63(m.S3[i])
			m.DInv3[i] = m.S3[i].TransMul63(m.U3[i]).Inv()
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
			dm := mat.NewDense(nd, nd, nil)
			for a := 0; a < nd; a++ {
				st.U[a] = m.IA[i].MulVec(st.S[a])
			}
			for a := 0; a < nd; a++ {
				for b := 0; b < nd; b++ {
					dm.Set(a, b, st.S[a].Dot(st.U[b]))
				}
				st.UBias.SetVec(a, tau[j.DOFIndex+a]-st.S[a].Dot(m.PA[i]))
			}
			if err := st.DInv.Inverse(dm); err != nil {
				panic("dynamics: singular custom joint inertia: " + err.Error())
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

	accelerationPass(m, qddot)
}

// accelerationPass runs the forward sweep shared by the articulated
// body algorithm and the constraint-force application recursion: it
// resolves every joint's acceleration from the articulated quantities
// cached on the model. A[0] must hold the negated gravity offset.
func accelerationPass(m *model.Model, qddot []float64) {
	n := m.NumBodies()
	for i := 1; i < n; i++ {
		p := m.Parent[i]
		ap := m.XLambda[i].Apply(m.A[p]).Add(m.CV[i])
		j := m.Joints[i]
		switch j.Kind {
		case model.JointRevolute, model.JointPrismatic:
			d := j.DOFIndex
			qddot[d] = (m.UBias[i] - m.U[i].Dot(ap)) / m.D[i]
			m.A[i] = ap.Add(m.S[i].Scale(qddot[d]))
		case model.JointSpherical:
			d := j.DOFIndex
			qdd := m.DInv3[i].Mul3x1(m.UBias3[i].Sub(mgl64.Vec3{
				m.U3[i][0].Dot(ap), m.U3[i][1].Dot(ap), m.U3[i][2].Dot(ap),
			}))
			qddot[d], qddot[d+1], qddot[d+2] = qdd[0], qdd[1], qdd[2]
			m.A[i] = ap.Add(m.S3[i].MulVec3(qdd))
		case model.JointCustom:
			st := m.Custom[j.CustomIndex]
			nd := j.DOF
			for a := 0; a < nd; a++ {
				s := 0.0
				for b := 0; b < nd; b++ {
					s += st.DInv.At(a, b) * (st.UBias.AtVec(b) - st.U[b].Dot(ap))
				}
				qddot[j.DOFIndex+a] = s
			}
			for a := 0; a < nd; a++ {
				ap = ap.Add(st.S[a].Scale(qddot[j.DOFIndex+a]))
			}
			m.A[i] = ap
		}
	}
}
