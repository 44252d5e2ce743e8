package constraint

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/linalg"
	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// mergeTol is the absolute tolerance under which contact points and
// loop frames count as identical for constraint merging.
const mergeTol = 100 * 2.220446049250313e-16

// Set is the constraint registry. Constraints are appended while the
// set is unbound; Bind resolves them against a model and allocates all
// working memory once, after which assembly and solve calls never
// allocate. A Set is not safe for concurrent use: every solve mutates
// the shared workspace in place.
type Set struct {
	// Solver selects the dense factorization used by the direct
	// solver, the test-force contact solver and the projection
	// solvers.
	Solver linalg.Solver

	// Constraints owns the registered constraints in row order.
	// contacts and loops index into it for variant-specific passes.
	Constraints []Constraint
	contacts    []*ContactConstraint
	loops       []*LoopConstraint

	// Parallel per-row state. Every slice always has exactly as many
	// entries as the constraints have rows in total.
	Name         []string
	Type         []Kind
	Err          []float64
	ErrD         []float64
	Force        []float64
	Impulse      []float64
	VPlus        []float64
	Acceleration []float64

	bound bool
	nDOF  int

	// Assembled system.
	H     *mat.Dense
	C     []float64
	G     *mat.Dense
	Gamma []float64

	// Augmented KKT workspace, shared by the direct solver and the
	// projection solvers.
	kktA *mat.Dense
	kktB *mat.VecDense
	kktX *mat.VecDense

	// Range-space workspace.
	hFac *mat.Dense
	kMat *mat.Dense
	kSym *mat.SymDense
	aVec []float64
	yMat *mat.Dense
	zVec []float64
	gCol []float64

	// Null-space workspace. vDOF/vRows/vNull scratch is sized
	// nDOF / rows / nDOF-rows at Bind.
	gtMat  *mat.Dense
	qTall  *mat.Dense
	gyMat  *mat.Dense
	zhMat  *mat.Dense
	nzSym  *mat.SymDense
	vDOF   *mat.VecDense
	vDOF2  *mat.VecDense
	vRows  *mat.VecDense
	vRows2 *mat.VecDense
	vNull  *mat.VecDense
	vNull2 *mat.VecDense

	// Reused factorization state.
	qrFac   mat.QR
	cholFac mat.Cholesky

	cRes  []float64
	hqdot []float64

	qddotZero []float64

	// Test-force contact workspace.
	fT          []spatial.Vector
	fExt        []spatial.Vector
	fExtTest    []spatial.Vector
	pointAccel0 []mgl64.Vec3
	dPA         []spatial.Vector
	dA          []spatial.Vector
	dU          []float64
	dU3         []mgl64.Vec3
	qddot0      []float64
	qddotT      []float64
}

// Rows returns the total number of constraint rows.
func (s *Set) Rows() int { return len(s.Err) }

// Bound reports whether Bind has been called.
func (s *Set) Bound() bool { return s.bound }

func (s *Set) growRow(kind Kind, name string) {
	s.Name = append(s.Name, name)
	s.Type = append(s.Type, kind)
	s.Err = append(s.Err, 0)
	s.ErrD = append(s.ErrD, 0)
	s.Force = append(s.Force, 0)
	s.Impulse = append(s.Impulse, 0)
	s.VPlus = append(s.VPlus, 0)
	s.Acceleration = append(s.Acceleration, 0)
}

func (s *Set) appendConstraint(c Constraint, name string) int {
	c.setRowOffset(s.Rows())
	s.Constraints = append(s.Constraints, c)
	for i := 0; i < c.Rows(); i++ {
		s.growRow(c.Kind(), name)
	}
	return s.Rows() - 1
}

// AddContactConstraint registers a contact with one row per direction
// and returns the global index of its last row.
func (s *Set) AddContactConstraint(body int, point mgl64.Vec3, normals []mgl64.Vec3, name string) (int, error) {
	if s.bound {
		return -1, ErrBound
	}
	c := &ContactConstraint{
		rowBlock: rowBlock{name: name, rows: len(normals)},
		Body:     body,
		Point:    point,
		Normals:  append([]mgl64.Vec3(nil), normals...),
	}
	s.contacts = append(s.contacts, c)
	return s.appendConstraint(c, name), nil
}

// AddContactPoint registers a single contact direction. With merge
// enabled the direction is stacked onto the immediately preceding
// constraint when that is a contact on the same body whose point
// coincides within tolerance, sharing its point Jacobian.
func (s *Set) AddContactPoint(body int, point, normal mgl64.Vec3, name string, merge bool) (int, error) {
	if s.bound {
		return -1, ErrBound
	}
	if merge && len(s.Constraints) > 0 {
		if c, ok := s.Constraints[len(s.Constraints)-1].(*ContactConstraint); ok &&
			c.Body == body && point.Sub(c.Point).Len() < mergeTol {
			c.Normals = append(c.Normals, normal)
			c.rows++
			s.growRow(KindContact, name)
			return s.Rows() - 1, nil
		}
	}
	return s.AddContactConstraint(body, point, []mgl64.Vec3{normal}, name)
}

// AddLoopConstraint registers a loop closure with one row per axis.
// Nil posLevel/velLevel enable every axis at that level.
func (s *Set) AddLoopConstraint(pred, succ int, frameP, frameS spatial.Transform, axes []spatial.Vector, posLevel, velLevel []bool, stabilize bool, tau float64, name string) (int, error) {
	if s.bound {
		return -1, ErrBound
	}
	if posLevel == nil {
		posLevel = allTrue(len(axes))
	}
	if velLevel == nil {
		velLevel = allTrue(len(axes))
	}
	if len(posLevel) != len(axes) || len(velLevel) != len(axes) {
		return -1, ErrSize
	}
	l := &LoopConstraint{
		rowBlock:    rowBlock{name: name, rows: len(axes), stabilize: stabilize, tau: tau},
		Predecessor: pred,
		Successor:   succ,
		FrameP:      frameP,
		FrameS:      frameS,
		Axes:        append([]spatial.Vector(nil), axes...),
		PosLevel:    append([]bool(nil), posLevel...),
		VelLevel:    append([]bool(nil), velLevel...),
	}
	s.loops = append(s.loops, l)
	return s.appendConstraint(l, name), nil
}

// AddLoopAxis registers a single loop-closure axis. With merge enabled
// the axis is stacked onto the immediately preceding constraint when
// that is a loop over the same body pair with coinciding attachment
// frames.
func (s *Set) AddLoopAxis(pred, succ int, frameP, frameS spatial.Transform, axis spatial.Vector, posLevel, velLevel bool, stabilize bool, tau float64, name string, merge bool) (int, error) {
	if s.bound {
		return -1, ErrBound
	}
	if merge && len(s.Constraints) > 0 {
		if l, ok := s.Constraints[len(s.Constraints)-1].(*LoopConstraint); ok &&
			l.Predecessor == pred && l.Successor == succ &&
			framesEqual(l.FrameP, frameP) && framesEqual(l.FrameS, frameS) {
			l.Axes = append(l.Axes, axis)
			l.PosLevel = append(l.PosLevel, posLevel)
			l.VelLevel = append(l.VelLevel, velLevel)
			l.rows++
			s.growRow(KindLoop, name)
			return s.Rows() - 1, nil
		}
	}
	return s.AddLoopConstraint(pred, succ, frameP, frameS,
		[]spatial.Vector{axis}, []bool{posLevel}, []bool{velLevel}, stabilize, tau, name)
}

// AddCustomConstraint registers an externally implemented constraint.
func (s *Set) AddCustomConstraint(impl Custom, stabilize bool, tau float64) (int, error) {
	if s.bound {
		return -1, ErrBound
	}
	c := &customConstraint{
		rowBlock: rowBlock{name: impl.Name(), rows: impl.Rows(), stabilize: stabilize, tau: tau},
		impl:     impl,
	}
	return s.appendConstraint(c, impl.Name()), nil
}

func allTrue(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}

func framesEqual(a, b spatial.Transform) bool {
	for i := 0; i < 9; i++ {
		if abs(a.E[i]-b.E[i]) > mergeTol {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		if abs(a.R[i]-b.R[i]) > mergeTol {
			return false
		}
	}
	return true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Bind resolves all constraints against the model and allocates the
// full working memory of the set. It may be called exactly once.
func (s *Set) Bind(m *model.Model) error {
	if s.bound {
		return ErrBound
	}
	for _, c := range s.Constraints {
		if err := c.Bind(m); err != nil {
			return fmt.Errorf("bind %q: %w", c.Name(), err)
		}
	}

	nd := m.DOFCount
	mr := s.Rows()
	nb := m.NumBodies()
	s.nDOF = nd

	s.H = mat.NewDense(nd, nd, nil)
	s.C = make([]float64, nd)
	s.G = mat.NewDense(max(mr, 1), nd, nil)
	s.Gamma = make([]float64, mr)

	s.kktA = mat.NewDense(nd+mr, nd+mr, nil)
	s.kktB = mat.NewVecDense(nd+mr, nil)
	s.kktX = mat.NewVecDense(nd+mr, nil)

	mr1 := max(mr, 1)
	nz1 := max(nd-mr, 1)

	s.hFac = mat.NewDense(nd, nd, nil)
	s.kMat = mat.NewDense(mr1, mr1, nil)
	s.kSym = mat.NewSymDense(mr1, nil)
	s.aVec = make([]float64, mr)
	s.yMat = mat.NewDense(nd, mr1, nil)
	s.zVec = make([]float64, nd)
	s.gCol = make([]float64, nd)

	s.gtMat = mat.NewDense(nd, mr1, nil)
	s.qTall = mat.NewDense(nd, nd, nil)
	s.gyMat = mat.NewDense(mr1, mr1, nil)
	s.zhMat = mat.NewDense(nz1, nd, nil)
	s.nzSym = mat.NewSymDense(nz1, nil)
	s.vDOF = mat.NewVecDense(nd, nil)
	s.vDOF2 = mat.NewVecDense(nd, nil)
	s.vRows = mat.NewVecDense(mr1, nil)
	s.vRows2 = mat.NewVecDense(mr1, nil)
	s.vNull = mat.NewVecDense(nz1, nil)
	s.vNull2 = mat.NewVecDense(nz1, nil)

	s.cRes = make([]float64, nd)
	s.hqdot = make([]float64, nd)

	s.qddotZero = make([]float64, nd)

	s.fT = make([]spatial.Vector, mr)
	s.fExt = make([]spatial.Vector, nb)
	s.fExtTest = make([]spatial.Vector, nb)
	s.pointAccel0 = make([]mgl64.Vec3, mr)
	s.dPA = make([]spatial.Vector, nb)
	s.dA = make([]spatial.Vector, nb)
	s.dU = make([]float64, nb)
	s.dU3 = make([]mgl64.Vec3, nb)
	s.qddot0 = make([]float64, nd)
	s.qddotT = make([]float64, nd)

	s.bound = true
	return nil
}

// Clear zeroes all derived numeric state while leaving the registered
// constraints, row layout and prescribed accelerations untouched. It
// is idempotent and valid on an unbound set.
func (s *Set) Clear() {
	zero(s.Err)
	zero(s.ErrD)
	zero(s.Force)
	zero(s.Impulse)
	zero(s.VPlus)
	if !s.bound {
		return
	}
	zero(s.C)
	zero(s.Gamma)
	zero(s.aVec)
	zero(s.zVec)
	zero(s.cRes)
	zero(s.hqdot)
	zero(s.gCol)
	s.hFac.Zero()
	s.yMat.Zero()
	s.kSym.Zero()
	s.gtMat.Zero()
	s.qTall.Zero()
	s.gyMat.Zero()
	s.zhMat.Zero()
	s.nzSym.Zero()
	s.vDOF.Zero()
	s.vDOF2.Zero()
	s.vRows.Zero()
	s.vRows2.Zero()
	s.vNull.Zero()
	s.vNull2.Zero()
	zero(s.qddot0)
	zero(s.qddotT)
	s.H.Zero()
	s.G.Zero()
	s.kktA.Zero()
	s.kktB.Zero()
	s.kktX.Zero()
	s.kMat.Zero()
	spatial.ZeroAll(s.fT)
	spatial.ZeroAll(s.fExt)
	spatial.ZeroAll(s.fExtTest)
	for i := range s.pointAccel0 {
		s.pointAccel0[i] = mgl64.Vec3{}
	}
	spatial.ZeroAll(s.dPA)
	spatial.ZeroAll(s.dA)
	zero(s.dU)
	for i := range s.dU3 {
		s.dU3[i] = mgl64.Vec3{}
	}
}

func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}
