package dynamics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

func pointMass(mass, x float64) model.Body {
	return model.Body{Mass: mass, COM: mgl64.Vec3{x, 0, 0}}
}

// doublePendulum builds a planar double pendulum with point masses in
// the x-y plane, rotating about z, gravity along -y.
func doublePendulum(m1, l1, m2, l2 float64) *model.Model {
	m := model.New()
	m.Gravity = mgl64.Vec3{0, -9.81, 0}
	b1, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(m1, l1))
	m.AddBody(b1, spatial.Translation(mgl64.Vec3{l1, 0, 0}), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(m2, l2))
	return m
}

func TestInertiaMatrixDoublePendulum(t *testing.T) {
	m1, l1, m2, l2 := 1.5, 0.8, 0.7, 1.2
	m := doublePendulum(m1, l1, m2, l2)

	q := []float64{0.3, -1.1}
	h := mat.NewDense(2, 2, nil)
	CompositeRigidBody(m, q, h, true)

	c2 := math.Cos(q[1])
	want := [2][2]float64{
		{m1*l1*l1 + m2*(l1*l1+l2*l2+2*l1*l2*c2), m2 * (l2*l2 + l1*l2*c2)},
		{m2 * (l2*l2 + l1*l2*c2), m2 * l2 * l2},
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(h.At(i, j)-want[i][j]) > 1e-10 {
				t.Errorf("H(%d,%d) = %g, want %g", i, j, h.At(i, j), want[i][j])
			}
		}
	}
}

func TestNonlinearEffectsGravity(t *testing.T) {
	m1, l1, m2, l2 := 1.5, 0.8, 0.7, 1.2
	m := doublePendulum(m1, l1, m2, l2)

	q := []float64{0.4, 0.9}
	qdot := []float64{0, 0}
	c := make([]float64, 2)
	NonlinearEffects(m, q, qdot, c, nil)

	g := 9.81
	want0 := (m1+m2)*g*l1*math.Cos(q[0]) + m2*g*l2*math.Cos(q[0]+q[1])
	want1 := m2 * g * l2 * math.Cos(q[0]+q[1])
	if math.Abs(c[0]-want0) > 1e-10 {
		t.Errorf("c[0] = %g, want %g", c[0], want0)
	}
	if math.Abs(c[1]-want1) > 1e-10 {
		t.Errorf("c[1] = %g, want %g", c[1], want1)
	}
}

func TestForwardDynamicsMatchesDenseSolve(t *testing.T) {
	m := doublePendulum(1.5, 0.8, 0.7, 1.2)

	q := []float64{0.3, -0.6}
	qdot := []float64{1.1, -0.4}
	tau := []float64{0.2, -0.1}

	h := mat.NewDense(2, 2, nil)
	CompositeRigidBody(m, q, h, true)
	c := make([]float64, 2)
	NonlinearEffects(m, q, qdot, c, nil)

	rhs := mat.NewVecDense(2, []float64{tau[0] - c[0], tau[1] - c[1]})
	var want mat.VecDense
	if err := want.SolveVec(h, rhs); err != nil {
		t.Fatalf("dense solve: %v", err)
	}

	qddot := make([]float64, 2)
	ForwardDynamics(m, q, qdot, tau, qddot, nil)
	for i := range qddot {
		if math.Abs(qddot[i]-want.AtVec(i)) > 1e-9 {
			t.Errorf("qddot[%d] = %g, want %g", i, qddot[i], want.AtVec(i))
		}
	}
}

func TestForwardDynamicsSphericalChain(t *testing.T) {
	m := model.New()
	m.Gravity = mgl64.Vec3{0, -9.81, 0}
	b1, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointSpherical, mgl64.Vec3{}, model.Body{
		Mass: 1.2, COM: mgl64.Vec3{0, -0.5, 0}, Inertia: mgl64.Diag3(mgl64.Vec3{0.02, 0.01, 0.02}),
	})
	// The elbow axis must not pass through the point mass at
	// {0.4, 0, 0} or its joint-space inertia row would vanish.
	m.AddBody(b1, spatial.Translation(mgl64.Vec3{0, -1, 0}), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(0.6, 0.4))

	q := m.DefaultQ()
	m.SetQuaternion(b1, mgl64.QuatRotate(0.35, mgl64.Vec3{1, 0, 0}.Normalize()), q)
	q[4] = -0.2
	qdot := []float64{0.3, -0.2, 0.5, 0.7}
	tau := []float64{0.1, 0, -0.05, 0.2}

	nd := m.DOFCount
	h := mat.NewDense(nd, nd, nil)
	CompositeRigidBody(m, q, h, true)
	c := make([]float64, nd)
	NonlinearEffects(m, q, qdot, c, nil)

	rhsData := make([]float64, nd)
	for i := range rhsData {
		rhsData[i] = tau[i] - c[i]
	}
	var want mat.VecDense
	if err := want.SolveVec(h, mat.NewVecDense(nd, rhsData)); err != nil {
		t.Fatalf("dense solve: %v", err)
	}

	qddot := make([]float64, nd)
	ForwardDynamics(m, q, qdot, tau, qddot, nil)
	for i := range qddot {
		if math.Abs(qddot[i]-want.AtVec(i)) > 1e-9 {
			t.Errorf("qddot[%d] = %g, want %g", i, qddot[i], want.AtVec(i))
		}
	}
}

// hingeJoint models a revolute joint through the custom-joint hook so
// its results can be checked against the built-in one.
type hingeJoint struct{ axis mgl64.Vec3 }

func (h hingeJoint) DOFCount() int { return 1 }

func (h hingeJoint) Update(q, qdot []float64, s []spatial.Vector) (spatial.Transform, spatial.Vector, spatial.Vector) {
	s[0] = spatial.NewVector(h.axis, mgl64.Vec3{})
	xj := spatial.RotationAxis(q[0], h.axis)
	var vj spatial.Vector
	if qdot != nil {
		vj = s[0].Scale(qdot[0])
	}
	return xj, vj, spatial.Vector{}
}

func TestForwardDynamicsCustomJointMatchesBuiltin(t *testing.T) {
	build := func(custom bool) *model.Model {
		m := model.New()
		m.Gravity = mgl64.Vec3{0, -9.81, 0}
		b1, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(1.5, 0.8))
		xt := spatial.Translation(mgl64.Vec3{0.8, 0, 0})
		if custom {
			m.AddBodyCustomJoint(b1, xt, hingeJoint{axis: mgl64.Vec3{0, 0, 1}}, pointMass(0.7, 1.2))
		} else {
			m.AddBody(b1, xt, model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(0.7, 1.2))
		}
		return m
	}

	q := []float64{0.3, -0.6}
	qdot := []float64{1.1, -0.4}
	tau := []float64{0.2, -0.1}

	qddotRef := make([]float64, 2)
	ForwardDynamics(build(false), q, qdot, tau, qddotRef, nil)
	qddotCustom := make([]float64, 2)
	ForwardDynamics(build(true), q, qdot, tau, qddotCustom, nil)

	for i := range qddotRef {
		if math.Abs(qddotRef[i]-qddotCustom[i]) > 1e-10 {
			t.Errorf("qddot[%d]: custom %g, builtin %g", i, qddotCustom[i], qddotRef[i])
		}
	}
}

func TestSparseFactorizationSolvesInertiaSystem(t *testing.T) {
	// Branched tree: torso with two independent arms, so the inertia
	// matrix has structural zeros between the branches.
	m := model.New()
	m.Gravity = mgl64.Vec3{0, -9.81, 0}
	torso, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(2, 0.3))
	left, _ := m.AddBody(torso, spatial.Translation(mgl64.Vec3{0.3, 0.2, 0}), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(0.8, 0.4))
	m.AddBody(left, spatial.Translation(mgl64.Vec3{0.4, 0, 0}), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(0.3, 0.3))
	m.AddBody(torso, spatial.Translation(mgl64.Vec3{0.3, -0.2, 0}), model.JointRevolute, mgl64.Vec3{0, 0, 1}, pointMass(0.8, 0.4))

	nd := m.DOFCount
	q := []float64{0.2, -0.5, 0.8, 1.1}
	h := mat.NewDense(nd, nd, nil)
	CompositeRigidBody(m, q, h, true)

	b := []float64{1, -2, 0.5, 3}
	var want mat.VecDense
	if err := want.SolveVec(h, mat.NewVecDense(nd, append([]float64(nil), b...))); err != nil {
		t.Fatalf("dense solve: %v", err)
	}

	l := mat.DenseCopyOf(h)
	FactorizeLTL(l, m.DOFParent)
	x := append([]float64(nil), b...)
	SolveLTx(l, m.DOFParent, x)
	SolveLx(l, m.DOFParent, x)

	for i := range x {
		if math.Abs(x[i]-want.AtVec(i)) > 1e-9 {
			t.Errorf("x[%d] = %g, want %g", i, x[i], want.AtVec(i))
		}
	}
}
