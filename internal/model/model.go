// Package model implements the articulated rigid-body tree: bodies
// connected by joints, their kinematic state, and the cached
// articulated-body quantities the dynamics and constraint packages
// operate on. Body 0 is the fixed base; parents always carry a smaller
// index than their children.
package model

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rbsim/internal/spatial"
)

var (
	// ErrBadParent indicates an AddBody call referencing an unknown parent.
	ErrBadParent = errors.New("model: parent body does not exist")

	// ErrBadBody indicates a body id that resolves to no known body.
	ErrBadBody = errors.New("model: body does not exist")
)

// Fixed bodies are addressed above this offset so their ids cannot
// collide with movable body indices.
const fixedBodyBase = 1 << 30

// Body holds the mass properties of a rigid body: mass, center of mass
// in body coordinates, and rotational inertia about the center of mass.
type Body struct {
	Name    string
	Mass    float64
	COM     mgl64.Vec3
	Inertia mgl64.Mat3
}

// FixedBody is a body welded to a movable parent at Bind-time known
// offset; its mass properties were merged into the parent when added.
type FixedBody struct {
	Name          string
	MovableParent int
	// ParentTransform maps movable-parent coordinates to the fixed
	// body's frame.
	ParentTransform spatial.Transform
}

// Model is the kinematic tree plus all per-body state and scratch used
// by the recursive dynamics algorithms. Fields are exported because the
// dynamics and constraint packages implement their recursions directly
// over them.
type Model struct {
	Gravity mgl64.Vec3

	Parent []int
	Joints []Joint
	Bodies []Body
	XT     []spatial.Transform

	XLambda []spatial.Transform
	XBase   []spatial.Transform

	S  []spatial.Vector
	S3 []spatial.Matrix63

	V  []spatial.Vector
	A  []spatial.Vector
	CV []spatial.Vector

	I []spatial.Matrix

	// Articulated-body caches filled by dynamics.ForwardDynamics and
	// reused by the constraint package's test-force recursions.
	IA     []spatial.Matrix
	PA     []spatial.Vector
	U      []spatial.Vector
	D      []float64
	UBias  []float64
	U3     []spatial.Matrix63
	DInv3  []mgl64.Mat3
	UBias3 []mgl64.Vec3

	// F and IC are per-body workspaces for the recursive Newton-Euler
	// and composite-rigid-body passes.
	F  []spatial.Vector
	IC []spatial.Matrix

	// DOFParent[k] is the index of the supporting degree of freedom of
	// dof k, or -1 at the base. It encodes the branch-induced sparsity
	// pattern of the joint-space inertia matrix.
	DOFParent []int

	FixedBodies []FixedBody
	Custom      []*CustomJointState

	QSize    int
	DOFCount int
}

// New creates an empty model with only the fixed base and default
// gravity along -y.
func New() *Model {
	return &Model{
		Gravity: mgl64.Vec3{0, -9.81, 0},
		Parent:  []int{0},
		Joints:  []Joint{{Kind: JointFixed}},
		Bodies:  []Body{{Name: "base"}},
		XT:      []spatial.Transform{spatial.IdentityTransform()},
		XLambda: []spatial.Transform{spatial.IdentityTransform()},
		XBase:   []spatial.Transform{spatial.IdentityTransform()},
		S:       []spatial.Vector{{}},
		S3:      []spatial.Matrix63{{}},
		V:       []spatial.Vector{{}},
		A:       []spatial.Vector{{}},
		CV:      []spatial.Vector{{}},
		I:       []spatial.Matrix{{}},
		IA:      []spatial.Matrix{{}},
		PA:      []spatial.Vector{{}},
		U:       []spatial.Vector{{}},
		D:       []float64{0},
		UBias:   []float64{0},
		U3:      []spatial.Matrix63{{}},
		DInv3:   []mgl64.Mat3{{}},
		UBias3:  []mgl64.Vec3{{}},
		F:       []spatial.Vector{{}},
		IC:      []spatial.Matrix{{}},
	}
}

// NumBodies returns the number of movable bodies including the base.
func (m *Model) NumBodies() int { return len(m.Parent) }

// AddBody attaches a body to parent through a joint of the given kind.
// The joint frame is placed at xt relative to the parent frame. For
// fixed joints the body is merged into its movable parent and a fixed
// body id is returned.
func (m *Model) AddBody(parent int, xt spatial.Transform, kind JointKind, axis mgl64.Vec3, body Body) (int, error) {
	if err := m.checkParent(parent); err != nil {
		return 0, err
	}
	if kind == JointFixed {
		return m.addFixedBody(parent, xt, body), nil
	}

	joint := Joint{Kind: kind, Axis: axis}
	switch kind {
	case JointRevolute, JointPrismatic:
		joint.DOF = 1
	case JointSpherical:
		joint.DOF = 3
	default:
		return 0, fmt.Errorf("model: unsupported joint kind %d", kind)
	}
	return m.appendBody(parent, xt, joint, body, qSlots(kind, joint.DOF)), nil
}

// AddBodyCustomJoint attaches a body through a caller-supplied joint
// implementation.
func (m *Model) AddBodyCustomJoint(parent int, xt spatial.Transform, cj CustomJoint, body Body) (int, error) {
	if err := m.checkParent(parent); err != nil {
		return 0, err
	}
	dof := cj.DOFCount()
	joint := Joint{Kind: JointCustom, DOF: dof, CustomIndex: len(m.Custom)}
	m.Custom = append(m.Custom, newCustomJointState(cj))
	return m.appendBody(parent, xt, joint, body, dof), nil
}

func (m *Model) checkParent(parent int) error {
	if m.IsFixedBodyID(parent) {
		if parent-fixedBodyBase >= len(m.FixedBodies) {
			return fmt.Errorf("%w: id %d", ErrBadParent, parent)
		}
		return nil
	}
	if parent < 0 || parent >= len(m.Parent) {
		return fmt.Errorf("%w: id %d", ErrBadParent, parent)
	}
	return nil
}

// qSlots returns how many entries of Q a joint occupies. Spherical
// joints store a full unit quaternion (x, y, z, w).
func qSlots(kind JointKind, dof int) int {
	if kind == JointSpherical {
		return 4
	}
	return dof
}

func (m *Model) addFixedBody(parent int, xt spatial.Transform, body Body) int {
	mp := parent
	x := xt
	if m.IsFixedBodyID(parent) {
		fb := m.FixedBodies[parent-fixedBodyBase]
		mp = fb.MovableParent
		x = xt.Mul(fb.ParentTransform)
	}
	// Merge the inertia into the movable parent, expressed in the
	// parent's frame.
	ifix := spatial.Inertia(body.Mass, body.COM, body.Inertia)
	m.I[mp] = m.I[mp].Add(x.ToMatrixTranspose().Mul(ifix).Mul(x.ToMatrix()))
	m.Bodies[mp].Mass += body.Mass

	m.FixedBodies = append(m.FixedBodies, FixedBody{
		Name:            body.Name,
		MovableParent:   mp,
		ParentTransform: x,
	})
	return fixedBodyBase + len(m.FixedBodies) - 1
}

func (m *Model) appendBody(parent int, xt spatial.Transform, joint Joint, body Body, slots int) int {
	if m.IsFixedBodyID(parent) {
		fb := m.FixedBodies[parent-fixedBodyBase]
		xt = xt.Mul(fb.ParentTransform)
		parent = fb.MovableParent
	}

	joint.QIndex = m.QSize
	joint.DOFIndex = m.DOFCount

	m.Parent = append(m.Parent, parent)
	m.Joints = append(m.Joints, joint)
	m.Bodies = append(m.Bodies, body)
	m.XT = append(m.XT, xt)
	m.XLambda = append(m.XLambda, spatial.IdentityTransform())
	m.XBase = append(m.XBase, spatial.IdentityTransform())
	m.S = append(m.S, spatial.Vector{})
	m.S3 = append(m.S3, spatial.Matrix63{})
	m.V = append(m.V, spatial.Vector{})
	m.A = append(m.A, spatial.Vector{})
	m.CV = append(m.CV, spatial.Vector{})
	m.I = append(m.I, spatial.Inertia(body.Mass, body.COM, body.Inertia))
	m.IA = append(m.IA, spatial.Matrix{})
	m.PA = append(m.PA, spatial.Vector{})
	m.U = append(m.U, spatial.Vector{})
	m.D = append(m.D, 0)
	m.UBias = append(m.UBias, 0)
	m.U3 = append(m.U3, spatial.Matrix63{})
	m.DInv3 = append(m.DInv3, mgl64.Mat3{})
	m.UBias3 = append(m.UBias3, mgl64.Vec3{})
	m.F = append(m.F, spatial.Vector{})
	m.IC = append(m.IC, spatial.Matrix{})

	// Chain the new dofs into the supporting-dof array.
	prev := -1
	if p := parent; p != 0 {
		jp := m.Joints[p]
		prev = jp.DOFIndex + jp.DOF - 1
	}
	for k := 0; k < joint.DOF; k++ {
		m.DOFParent = append(m.DOFParent, prev)
		prev = m.DOFCount + k
	}

	m.QSize += slots
	m.DOFCount += joint.DOF
	return len(m.Parent) - 1
}

// IsFixedBodyID reports whether id addresses a merged fixed body.
func (m *Model) IsFixedBodyID(id int) bool { return id >= fixedBodyBase }

// MovableBodyID resolves a body id to the movable body carrying it.
func (m *Model) MovableBodyID(id int) int {
	if m.IsFixedBodyID(id) {
		return m.FixedBodies[id-fixedBodyBase].MovableParent
	}
	return id
}

// ValidBodyID reports whether id names an existing movable or fixed
// body other than the base.
func (m *Model) ValidBodyID(id int) bool {
	if m.IsFixedBodyID(id) {
		return id-fixedBodyBase < len(m.FixedBodies)
	}
	return id > 0 && id < len(m.Parent)
}

// DefaultQ returns a position vector of the right size with all
// spherical-joint quaternions set to identity.
func (m *Model) DefaultQ() []float64 {
	q := make([]float64, m.QSize)
	for i := 1; i < len(m.Joints); i++ {
		if m.Joints[i].Kind == JointSpherical {
			q[m.Joints[i].QIndex+3] = 1
		}
	}
	return q
}

// Quaternion reads the unit quaternion of a spherical joint from Q.
func (m *Model) Quaternion(jointBody int, q []float64) mgl64.Quat {
	qi := m.Joints[jointBody].QIndex
	return mgl64.Quat{W: q[qi+3], V: mgl64.Vec3{q[qi], q[qi+1], q[qi+2]}}
}

// SetQuaternion writes a spherical joint's quaternion back into Q.
func (m *Model) SetQuaternion(jointBody int, quat mgl64.Quat, q []float64) {
	qi := m.Joints[jointBody].QIndex
	q[qi] = quat.V[0]
	q[qi+1] = quat.V[1]
	q[qi+2] = quat.V[2]
	q[qi+3] = quat.W
}

// QuatOmegaToQDot returns the quaternion rate corresponding to a body
// angular velocity omega for the orientation quat.
func QuatOmegaToQDot(quat mgl64.Quat, omega mgl64.Vec3) mgl64.Quat {
	return quat.Mul(mgl64.Quat{W: 0, V: omega}).Scale(0.5)
}

// IntegrateQ advances q by dt*qdot, handling spherical-joint
// quaternions with a renormalized quaternion update.
func (m *Model) IntegrateQ(q, qdot []float64, dt float64) {
	for i := 1; i < len(m.Joints); i++ {
		j := m.Joints[i]
		if j.Kind == JointSpherical {
			omega := mgl64.Vec3{qdot[j.DOFIndex], qdot[j.DOFIndex+1], qdot[j.DOFIndex+2]}
			quat := m.Quaternion(i, q)
			quat = quat.Add(QuatOmegaToQDot(quat, omega).Scale(dt))
			m.SetQuaternion(i, quat.Normalize(), q)
			continue
		}
		for k := 0; k < j.DOF; k++ {
			q[j.QIndex+k] += dt * qdot[j.DOFIndex+k]
		}
	}
}

// FixedBodyTransform returns the transform from the supporting movable
// body's frame to the fixed body's frame.
func (m *Model) FixedBodyTransform(id int) spatial.Transform {
	return m.FixedBodies[id-fixedBodyBase].ParentTransform
}
