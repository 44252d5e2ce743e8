// Package constraint implements the constrained-dynamics core: a
// registry of contact, loop and custom constraints sharing one global
// row space, assembly of the constrained equations of motion, three
// interchangeable linear solve strategies, impulse resolution,
// constraint-consistent state projection and an incremental test-force
// contact solver.
package constraint

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
)

// Kind tags the constraint variants sharing the global row space.
type Kind int

const (
	KindContact Kind = iota
	KindLoop
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindContact:
		return "contact"
	case KindLoop:
		return "loop"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

// Constraint is the contract every variant fulfils. A constraint owns
// a contiguous row range [RowOffset, RowOffset+Rows) in the set's
// global vectors and Jacobian and writes only into that range. All
// Calc methods may assume the model's kinematics match the passed
// state; the set guarantees the required ordering.
type Constraint interface {
	Name() string
	Kind() Kind
	Rows() int
	RowOffset() int

	// Bind resolves body references against the final topology. It is
	// called exactly once, from Set.Bind.
	Bind(m *model.Model) error

	// CalcPositionError writes the geometric violation into err at the
	// constraint's row range.
	CalcPositionError(m *model.Model, q []float64, err []float64)

	// CalcJacobian writes the constraint rows of g, sized
	// rows x DOFCount.
	CalcJacobian(m *model.Model, q []float64, g *mat.Dense)

	// CalcVelocityError writes the velocity-level violation into errd,
	// reading the already-computed Jacobian g.
	CalcVelocityError(m *model.Model, q, qdot []float64, g *mat.Dense, errd []float64)

	// CalcGamma writes the constraint bias into gamma. target holds
	// per-row prescribed constraint accelerations. Body accelerations
	// on the model must be evaluated at zero joint acceleration.
	CalcGamma(m *model.Model, q, qdot []float64, g *mat.Dense, target, gamma []float64)

	// Baumgarte stabilization accessors and the bias contribution
	// -2/tau * errd - 1/tau^2 * err over the constraint's rows.
	Baumgarte() (enabled bool, tau float64)
	SetBaumgarte(enabled bool, tau float64)
	AddBaumgarteForces(err, errd, gamma []float64)

	setRowOffset(off int)
}

// rowBlock carries the identity and stabilization state shared by all
// variants.
type rowBlock struct {
	name      string
	rows      int
	rowOffset int
	stabilize bool
	tau       float64
}

func (b *rowBlock) Name() string          { return b.name }
func (b *rowBlock) Rows() int             { return b.rows }
func (b *rowBlock) RowOffset() int        { return b.rowOffset }
func (b *rowBlock) setRowOffset(off int)  { b.rowOffset = off }
func (b *rowBlock) Baumgarte() (bool, float64) {
	return b.stabilize, b.tau
}

func (b *rowBlock) SetBaumgarte(enabled bool, tau float64) {
	b.stabilize = enabled
	b.tau = tau
}

func (b *rowBlock) AddBaumgarteForces(err, errd, gamma []float64) {
	if !b.stabilize || b.tau <= 0 {
		return
	}
	kd := 2 / b.tau
	kp := 1 / (b.tau * b.tau)
	for r := b.rowOffset; r < b.rowOffset+b.rows; r++ {
		gamma[r] += -kd*errd[r] - kp*err[r]
	}
}
