package constraint

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

func pendulum() *model.Model {
	m := model.New()
	m.Gravity = mgl64.Vec3{0, -9.81, 0}
	m.AddBody(0, spatial.IdentityTransform(), model.JointRevolute, mgl64.Vec3{0, 0, 1},
		model.Body{Mass: 1, COM: mgl64.Vec3{0.5, 0, 0}})
	return m
}

func (s *Set) rowInvariantHolds() bool {
	total := 0
	for _, c := range s.Constraints {
		total += c.Rows()
	}
	return total == len(s.Err) && total == len(s.ErrD) && total == len(s.Force) &&
		total == len(s.Impulse) && total == len(s.VPlus) && total == len(s.Name) &&
		total == len(s.Type) && total == len(s.Acceleration)
}

func TestRowAccounting(t *testing.T) {
	g := NewWithT(t)
	m := pendulum()

	var s Set
	_, err := s.AddContactConstraint(1, mgl64.Vec3{1, 0, 0},
		[]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}}, "tip")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s.rowInvariantHolds()).To(BeTrue())

	_, err = s.AddLoopConstraint(0, 1, spatial.IdentityTransform(), spatial.IdentityTransform(),
		[]spatial.Vector{{0, 0, 1, 0, 0, 0}}, nil, nil, false, 0, "pin")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s.Rows()).To(Equal(3))
	g.Expect(s.rowInvariantHolds()).To(BeTrue())
	g.Expect(s.Type).To(Equal([]Kind{KindContact, KindContact, KindLoop}))

	g.Expect(s.Bind(m)).To(Succeed())
	g.Expect(s.Bound()).To(BeTrue())
}

func TestContactMerge(t *testing.T) {
	g := NewWithT(t)
	p := mgl64.Vec3{1, 0, 0}

	var merged Set
	merged.AddContactPoint(1, p, mgl64.Vec3{1, 0, 0}, "x", true)
	merged.AddContactPoint(1, p, mgl64.Vec3{0, 1, 0}, "y", true)
	g.Expect(merged.Constraints).To(HaveLen(1))
	g.Expect(merged.Rows()).To(Equal(2))
	g.Expect(merged.Constraints[0].(*ContactConstraint).Normals).To(HaveLen(2))
	g.Expect(merged.rowInvariantHolds()).To(BeTrue())

	var split Set
	split.AddContactPoint(1, p, mgl64.Vec3{1, 0, 0}, "x", false)
	split.AddContactPoint(1, p, mgl64.Vec3{0, 1, 0}, "y", false)
	g.Expect(split.Constraints).To(HaveLen(2))
	g.Expect(split.Rows()).To(Equal(2))

	// A point further apart than the merge tolerance must not merge.
	var far Set
	far.AddContactPoint(1, p, mgl64.Vec3{1, 0, 0}, "x", true)
	far.AddContactPoint(1, p.Add(mgl64.Vec3{1e-10, 0, 0}), mgl64.Vec3{0, 1, 0}, "y", true)
	g.Expect(far.Constraints).To(HaveLen(2))
}

func TestLoopMerge(t *testing.T) {
	g := NewWithT(t)
	xp := spatial.Translation(mgl64.Vec3{0.2, 0, 0})
	xs := spatial.IdentityTransform()

	var s Set
	s.AddLoopAxis(0, 1, xp, xs, spatial.Vector{0, 0, 1, 0, 0, 0}, true, true, false, 0, "rz", true)
	s.AddLoopAxis(0, 1, xp, xs, spatial.Vector{0, 0, 0, 1, 0, 0}, true, true, false, 0, "tx", true)
	g.Expect(s.Constraints).To(HaveLen(1))
	g.Expect(s.Rows()).To(Equal(2))

	// Different frames block the merge.
	s.AddLoopAxis(0, 1, spatial.Translation(mgl64.Vec3{0.3, 0, 0}), xs,
		spatial.Vector{0, 0, 0, 0, 1, 0}, true, true, false, 0, "ty", true)
	g.Expect(s.Constraints).To(HaveLen(2))
	g.Expect(s.rowInvariantHolds()).To(BeTrue())
}

func TestLifecycleErrors(t *testing.T) {
	g := NewWithT(t)
	m := pendulum()

	var s Set
	s.AddContactPoint(1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, "tip", false)
	g.Expect(s.Bind(m)).To(Succeed())

	g.Expect(s.Bind(m)).To(MatchError(ErrBound))
	_, err := s.AddContactPoint(1, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, "late", false)
	g.Expect(err).To(MatchError(ErrBound))
	_, err = s.AddLoopConstraint(0, 1, spatial.IdentityTransform(), spatial.IdentityTransform(),
		[]spatial.Vector{{0, 0, 1, 0, 0, 0}}, nil, nil, false, 0, "late")
	g.Expect(err).To(MatchError(ErrBound))

	var unbound Set
	unbound.AddContactPoint(1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, "tip", false)
	q := m.DefaultQ()
	qdot := make([]float64, m.DOFCount)
	qddot := make([]float64, m.DOFCount)
	g.Expect(unbound.CalcSystemVariables(m, q, qdot, qdot, nil)).To(MatchError(ErrUnbound))
	g.Expect(unbound.ForwardDynamicsKokkevis(m, q, qdot, qdot, qddot)).To(MatchError(ErrUnbound))
}

func TestBindRejectsBadBody(t *testing.T) {
	m := pendulum()
	var s Set
	s.AddContactPoint(42, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, "bad", false)
	if err := s.Bind(m); !errors.Is(err, ErrBody) {
		t.Fatalf("expected ErrBody, got %v", err)
	}
}

func TestLoopAnchoredToBase(t *testing.T) {
	g := NewWithT(t)
	m := pendulum()
	axis := []spatial.Vector{{0, 0, 1, 0, 0, 0}}

	// The base body is a valid loop anchor on either side.
	var pred Set
	_, err := pred.AddLoopConstraint(0, 1, spatial.IdentityTransform(), spatial.IdentityTransform(),
		axis, nil, nil, false, 0, "pin")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(pred.Bind(m)).To(Succeed())

	var succ Set
	succ.AddLoopConstraint(1, 0, spatial.IdentityTransform(), spatial.IdentityTransform(),
		axis, nil, nil, false, 0, "pin")
	g.Expect(succ.Bind(m)).To(Succeed())

	// Contacts keep the movable-body requirement.
	var ground Set
	ground.AddContactPoint(0, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, "base", false)
	g.Expect(ground.Bind(m)).To(MatchError(ErrBody))
}

func TestClearIdempotent(t *testing.T) {
	g := NewWithT(t)
	m := pendulum()

	var s Set
	s.AddContactPoint(1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, "tip", false)
	g.Expect(s.Bind(m)).To(Succeed())

	q := m.DefaultQ()
	qdot := make([]float64, m.DOFCount)
	tau := make([]float64, m.DOFCount)
	qddot := make([]float64, m.DOFCount)
	g.Expect(s.ForwardDynamicsDirect(m, q, qdot, tau, qddot, nil)).To(Succeed())
	g.Expect(s.Force[0]).NotTo(BeZero())

	rows := s.Rows()
	nConstraints := len(s.Constraints)
	s.Clear()
	first := append([]float64(nil), s.Force...)
	s.Clear()
	g.Expect(s.Force).To(Equal(first))
	g.Expect(s.Force[0]).To(BeZero())
	g.Expect(s.Rows()).To(Equal(rows))
	g.Expect(s.Constraints).To(HaveLen(nConstraints))
}

func TestMixedSetRejected(t *testing.T) {
	m := pendulum()
	var s Set
	s.AddContactPoint(1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, "tip", false)
	s.AddLoopConstraint(0, 1, spatial.IdentityTransform(), spatial.IdentityTransform(),
		[]spatial.Vector{{0, 0, 1, 0, 0, 0}}, nil, nil, false, 0, "pin")
	if err := s.Bind(m); err != nil {
		t.Fatal(err)
	}
	q := m.DefaultQ()
	z := make([]float64, m.DOFCount)
	qddot := make([]float64, m.DOFCount)
	if err := s.ForwardDynamicsKokkevis(m, q, z, z, qddot); !errors.Is(err, ErrMixedSet) {
		t.Fatalf("expected ErrMixedSet, got %v", err)
	}
}
