package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/spatial"
)

// JointKind enumerates the joint types the tree models directly.
type JointKind int

const (
	JointFixed JointKind = iota
	JointRevolute
	JointPrismatic
	JointSpherical
	JointCustom
)

// Joint describes how a body is attached to its parent. QIndex locates
// the joint's position variables in Q, DOFIndex its velocity variables
// in QDot; the two diverge once a spherical joint precedes, since a
// quaternion takes four position slots for three degrees of freedom.
type Joint struct {
	Kind        JointKind
	Axis        mgl64.Vec3
	QIndex      int
	DOFIndex    int
	DOF         int
	CustomIndex int
}

// CustomJoint supplies joint kinematics the library does not model
// directly. Update must fill s (len == DOFCount) with the motion
// subspace columns in joint coordinates and return the joint transform
// plus joint velocity and its velocity-product term. qdot may be nil on
// position-only passes.
type CustomJoint interface {
	DOFCount() int
	Update(q, qdot []float64, s []spatial.Vector) (xj spatial.Transform, vj, cj spatial.Vector)
}

// CustomJointState carries the per-joint workspace the recursive
// algorithms need for a custom joint: motion subspace columns and the
// articulated-body quantities in dense form.
type CustomJointState struct {
	Joint CustomJoint

	S      []spatial.Vector
	CJ     spatial.Vector
	U      []spatial.Vector
	DInv   *mat.Dense
	UBias  *mat.VecDense
	DeltaU *mat.VecDense
}

func newCustomJointState(cj CustomJoint) *CustomJointState {
	n := cj.DOFCount()
	return &CustomJointState{
		Joint:  cj,
		S:      make([]spatial.Vector, n),
		U:      make([]spatial.Vector, n),
		DInv:   mat.NewDense(n, n, nil),
		UBias:  mat.NewVecDense(n, nil),
		DeltaU: mat.NewVecDense(n, nil),
	}
}

// quatToE converts an orientation quaternion into the coordinate
// rotation matrix used by spatial transforms (parent to joint frame).
func quatToE(q mgl64.Quat) mgl64.Mat3 {
	return q.Mat4().Mat3().Transpose()
}

// JCalc evaluates joint i's kinematics for the given state: it updates
// XLambda[i] and the motion subspace, and returns the joint spatial
// velocity. qdot may be nil when only positions are needed.
func (m *Model) JCalc(i int, q, qdot []float64) spatial.Vector {
	j := m.Joints[i]
	var xj spatial.Transform
	var vj spatial.Vector

	switch j.Kind {
	case JointRevolute:
		xj = spatial.RotationAxis(q[j.QIndex], j.Axis)
		m.S[i] = spatial.NewVector(j.Axis, mgl64.Vec3{})
		if qdot != nil {
			vj = m.S[i].Scale(qdot[j.DOFIndex])
		}
	case JointPrismatic:
		xj = spatial.Translation(j.Axis.Mul(q[j.QIndex]))
		m.S[i] = spatial.NewVector(mgl64.Vec3{}, j.Axis)
		if qdot != nil {
			vj = m.S[i].Scale(qdot[j.DOFIndex])
		}
	case JointSpherical:
		xj = spatial.Rotation(quatToE(m.Quaternion(i, q)))
		m.S3[i] = spatial.Matrix63{
			spatial.Vector{1, 0, 0, 0, 0, 0},
			spatial.Vector{0, 1, 0, 0, 0, 0},
			spatial.Vector{0, 0, 1, 0, 0, 0},
		}
		if qdot != nil {
			d := j.DOFIndex
			vj = m.S3[i].MulVec3(mgl64.Vec3{qdot[d], qdot[d+1], qdot[d+2]})
		}
	case JointCustom:
		st := m.Custom[j.CustomIndex]
		var qd []float64
		if qdot != nil {
			qd = qdot[j.DOFIndex : j.DOFIndex+j.DOF]
		}
		var cj spatial.Vector
		xj, vj, cj = st.Joint.Update(q[j.QIndex:j.QIndex+j.DOF], qd, st.S)
		st.CJ = cj
	}

	m.XLambda[i] = xj.Mul(m.XT[i])
	return vj
}

// JointCJ returns the velocity-product term of joint i's motion
// subspace (zero for the built-in joint types).
func (m *Model) JointCJ(i int) spatial.Vector {
	if m.Joints[i].Kind == JointCustom {
		return m.Custom[m.Joints[i].CustomIndex].CJ
	}
	return spatial.Vector{}
}

// JointColumns yields the motion-subspace columns of joint i in body
// coordinates together with their generalized-velocity indices.
func (m *Model) JointColumns(i int, fn func(dof int, col spatial.Vector)) {
	j := m.Joints[i]
	switch j.Kind {
	case JointRevolute, JointPrismatic:
		fn(j.DOFIndex, m.S[i])
	case JointSpherical:
		for k := 0; k < 3; k++ {
			fn(j.DOFIndex+k, m.S3[i][k])
		}
	case JointCustom:
		st := m.Custom[j.CustomIndex]
		for k := 0; k < j.DOF; k++ {
			fn(j.DOFIndex+k, st.S[k])
		}
	}
}
