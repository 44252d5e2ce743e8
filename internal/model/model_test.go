package model

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/spatial"
)

func vec3Close(t *testing.T, name string, got, want mgl64.Vec3, eps float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > eps {
			t.Errorf("%s = %v, want %v", name, got, want)
			return
		}
	}
}

func TestPointKinematicsPendulum(t *testing.T) {
	m := New()
	m.Gravity = mgl64.Vec3{0, -9.81, 0}
	l := 1.3
	b, _ := m.AddBody(0, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1},
		Body{Mass: 1, COM: mgl64.Vec3{l, 0, 0}})

	q := []float64{0.7}
	qdot := []float64{-0.9}
	qddot := []float64{0.4}
	m.UpdateKinematics(q, qdot, qddot)

	tip := mgl64.Vec3{l, 0, 0}
	s, c := math.Sin(q[0]), math.Cos(q[0])
	vec3Close(t, "tip position", m.BodyToBase(b, tip), mgl64.Vec3{l * c, l * s, 0}, 1e-12)
	vec3Close(t, "tip velocity", m.PointVelocity(b, tip),
		mgl64.Vec3{-l * s * qdot[0], l * c * qdot[0], 0}, 1e-12)
	wantAcc := mgl64.Vec3{
		-l*s*qddot[0] - l*c*qdot[0]*qdot[0],
		l*c*qddot[0] - l*s*qdot[0]*qdot[0],
		0,
	}
	vec3Close(t, "tip acceleration", m.PointAcceleration(b, tip), wantAcc, 1e-12)
}

func TestDOFParentChaining(t *testing.T) {
	m := New()
	torso, _ := m.AddBody(0, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1}, Body{Mass: 1})
	left, _ := m.AddBody(torso, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1}, Body{Mass: 1})
	m.AddBody(left, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1}, Body{Mass: 1})
	m.AddBody(torso, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1}, Body{Mass: 1})

	want := []int{-1, 0, 1, 0}
	for i, w := range want {
		if m.DOFParent[i] != w {
			t.Errorf("DOFParent[%d] = %d, want %d", i, m.DOFParent[i], w)
		}
	}
}

func TestDOFParentSphericalChain(t *testing.T) {
	m := New()
	b1, _ := m.AddBody(0, spatial.IdentityTransform(), JointSpherical, mgl64.Vec3{}, Body{Mass: 1})
	m.AddBody(b1, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{1, 0, 0}, Body{Mass: 1})

	want := []int{-1, 0, 1, 2}
	for i, w := range want {
		if m.DOFParent[i] != w {
			t.Errorf("DOFParent[%d] = %d, want %d", i, m.DOFParent[i], w)
		}
	}
	if m.QSize != 5 || m.DOFCount != 4 {
		t.Errorf("QSize, DOFCount = %d, %d, want 5, 4", m.QSize, m.DOFCount)
	}
}

func TestFixedBodyMergesIntoParent(t *testing.T) {
	m := New()
	b, _ := m.AddBody(0, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1},
		Body{Mass: 1, COM: mgl64.Vec3{0.5, 0, 0}})
	off := mgl64.Vec3{1, 0, 0}
	fixed, _ := m.AddBody(b, spatial.Translation(off), JointFixed, mgl64.Vec3{},
		Body{Mass: 0.5, COM: mgl64.Vec3{0.2, 0, 0}})

	if !m.IsFixedBodyID(fixed) {
		t.Fatalf("expected fixed body id, got %d", fixed)
	}
	if m.MovableBodyID(fixed) != b {
		t.Errorf("MovableBodyID = %d, want %d", m.MovableBodyID(fixed), b)
	}

	q := []float64{0.3}
	qdot := []float64{1.4}
	m.UpdateKinematics(q, qdot, []float64{0})

	// A point on the fixed body must behave like the same point
	// expressed on the movable parent.
	p := mgl64.Vec3{0.1, 0.2, 0}
	onParent := off.Add(p)
	vec3Close(t, "fixed body point", m.BodyToBase(fixed, p), m.BodyToBase(b, onParent), 1e-12)
	vec3Close(t, "fixed body velocity", m.PointVelocity(fixed, p), m.PointVelocity(b, onParent), 1e-12)
}

func TestPointJacobianMatchesVelocity(t *testing.T) {
	m := New()
	b1, _ := m.AddBody(0, spatial.IdentityTransform(), JointRevolute, mgl64.Vec3{0, 0, 1},
		Body{Mass: 1, COM: mgl64.Vec3{0.8, 0, 0}})
	b2, _ := m.AddBody(b1, spatial.Translation(mgl64.Vec3{0.8, 0, 0}), JointRevolute, mgl64.Vec3{0, 0, 1},
		Body{Mass: 0.5, COM: mgl64.Vec3{0.6, 0, 0}})

	q := []float64{0.4, -0.9}
	qdot := []float64{1.2, 0.7}
	m.UpdateKinematics(q, qdot, []float64{0, 0})

	p := mgl64.Vec3{0.6, 0.1, 0}
	jac := mat.NewDense(3, m.DOFCount, nil)
	m.PointJacobian(b2, p, jac)

	var jv mat.VecDense
	jv.MulVec(jac, mat.NewVecDense(2, qdot))
	vec3Close(t, "J qdot", mgl64.Vec3{jv.AtVec(0), jv.AtVec(1), jv.AtVec(2)},
		m.PointVelocity(b2, p), 1e-12)
}

func TestIntegrateQQuaternion(t *testing.T) {
	m := New()
	b, _ := m.AddBody(0, spatial.IdentityTransform(), JointSpherical, mgl64.Vec3{},
		Body{Mass: 1, Inertia: mgl64.Ident3()})

	q := m.DefaultQ()
	omega := mgl64.Vec3{0, 0, 2.0}
	qdot := []float64{omega[0], omega[1], omega[2]}

	dt := 1e-3
	steps := 500
	for i := 0; i < steps; i++ {
		m.IntegrateQ(q, qdot, dt)
	}

	quat := m.Quaternion(b, q)
	if math.Abs(quat.Len()-1) > 1e-12 {
		t.Errorf("quaternion norm drifted to %g", quat.Len())
	}
	angle := 2 * math.Atan2(quat.V.Len(), quat.W)
	want := omega.Len() * dt * float64(steps)
	if math.Abs(angle-want) > 1e-3 {
		t.Errorf("rotation angle = %g, want %g", angle, want)
	}
}
