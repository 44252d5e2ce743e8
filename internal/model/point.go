package model

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/spatial"
)

// ResolvePoint maps a possibly fixed body id and body-local point onto
// the carrying movable body and the equivalent point in its frame.
func (m *Model) ResolvePoint(bodyID int, point mgl64.Vec3) (int, mgl64.Vec3) {
	if !m.IsFixedBodyID(bodyID) {
		return bodyID, point
	}
	fb := m.FixedBodies[bodyID-fixedBodyBase]
	x := fb.ParentTransform
	return fb.MovableParent, x.E.Transpose().Mul3x1(point).Add(x.R)
}

// BodyToBase converts a body-local point into base coordinates using
// the current kinematic state.
func (m *Model) BodyToBase(bodyID int, point mgl64.Vec3) mgl64.Vec3 {
	i, p := m.ResolvePoint(bodyID, point)
	x := m.XBase[i]
	return x.E.Transpose().Mul3x1(p).Add(x.R)
}

// BaseToBody converts a base-frame point into body-local coordinates.
func (m *Model) BaseToBody(bodyID int, point mgl64.Vec3) mgl64.Vec3 {
	if m.IsFixedBodyID(bodyID) {
		fb := m.FixedBodies[bodyID-fixedBodyBase]
		pp := m.BaseToBody(fb.MovableParent, point)
		return fb.ParentTransform.E.Mul3x1(pp.Sub(fb.ParentTransform.R))
	}
	x := m.XBase[bodyID]
	return x.E.Mul3x1(point.Sub(x.R))
}

// WorldOrientation returns the rotation from base to body coordinates.
func (m *Model) WorldOrientation(bodyID int) mgl64.Mat3 {
	if m.IsFixedBodyID(bodyID) {
		fb := m.FixedBodies[bodyID-fixedBodyBase]
		return fb.ParentTransform.E.Mul3(m.XBase[fb.MovableParent].E)
	}
	return m.XBase[bodyID].E
}

// pointTransform builds the transform from body coordinates to a
// base-aligned frame located at the body-local point.
func (m *Model) pointTransform(i int, pointLocal mgl64.Vec3) spatial.Transform {
	return spatial.Transform{E: m.XBase[i].E.Transpose(), R: pointLocal}
}

// PointVelocity returns the base-frame linear velocity of a body-fixed
// point.
func (m *Model) PointVelocity(bodyID int, point mgl64.Vec3) mgl64.Vec3 {
	i, p := m.ResolvePoint(bodyID, point)
	return m.pointTransform(i, p).Apply(m.V[i]).Linear()
}

// PointAcceleration returns the classical base-frame acceleration of a
// body-fixed point for the accelerations currently stored on the model.
func (m *Model) PointAcceleration(bodyID int, point mgl64.Vec3) mgl64.Vec3 {
	i, p := m.ResolvePoint(bodyID, point)
	px := m.pointTransform(i, p)
	pv := px.Apply(m.V[i])
	pa := px.Apply(m.A[i])
	return pa.Linear().Add(pv.Angular().Cross(pv.Linear()))
}

// eachJointColumn walks the supporting joints of body i from tip to
// base and yields every motion-subspace column expressed in base
// coordinates along with its dof index.
func (m *Model) eachJointColumn(i int, fn func(dof int, col spatial.Vector)) {
	for j := i; j != 0; j = m.Parent[j] {
		inv := m.XBase[j].Inverse()
		jt := m.Joints[j]
		switch jt.Kind {
		case JointRevolute, JointPrismatic:
			fn(jt.DOFIndex, inv.Apply(m.S[j]))
		case JointSpherical:
			for k := 0; k < 3; k++ {
				fn(jt.DOFIndex+k, inv.Apply(m.S3[j][k]))
			}
		case JointCustom:
			st := m.Custom[jt.CustomIndex]
			for k := 0; k < jt.DOF; k++ {
				fn(jt.DOFIndex+k, inv.Apply(st.S[k]))
			}
		}
	}
}

// PointJacobian writes the 3xDOFCount Jacobian of a body-fixed point
// into dst, which must be sized 3 x DOFCount. Columns not supporting
// the body are zeroed.
func (m *Model) PointJacobian(bodyID int, point mgl64.Vec3, dst *mat.Dense) {
	dst.Zero()
	i, p := m.ResolvePoint(bodyID, point)
	pt := spatial.Translation(m.BodyToBase(i, p))
	m.eachJointColumn(i, func(dof int, col spatial.Vector) {
		lin := pt.Apply(col).Linear()
		dst.Set(0, dof, lin[0])
		dst.Set(1, dof, lin[1])
		dst.Set(2, dof, lin[2])
	})
}

// SpatialJacobian writes the 6xDOFCount spatial Jacobian of a body in
// base coordinates (referenced to the base origin) into dst.
func (m *Model) SpatialJacobian(bodyID int, dst *mat.Dense) {
	dst.Zero()
	i := m.MovableBodyID(bodyID)
	m.eachJointColumn(i, func(dof int, col spatial.Vector) {
		for r := 0; r < 6; r++ {
			dst.Set(r, dof, col[r])
		}
	})
}

// BodyVelocityBase returns a body's spatial velocity expressed in base
// coordinates.
func (m *Model) BodyVelocityBase(bodyID int) spatial.Vector {
	i := m.MovableBodyID(bodyID)
	return m.XBase[i].Inverse().Apply(m.V[i])
}

// BodyAccelerationBase returns a body's spatial acceleration expressed
// in base coordinates.
func (m *Model) BodyAccelerationBase(bodyID int) spatial.Vector {
	i := m.MovableBodyID(bodyID)
	return m.XBase[i].Inverse().Apply(m.A[i])
}
