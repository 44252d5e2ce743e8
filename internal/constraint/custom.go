package constraint

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
)

// Custom supplies user-defined constraint equations. Implementations
// write into the passed global structures starting at row, covering
// exactly Rows() consecutive rows.
type Custom interface {
	Name() string
	Rows() int
	Bind(m *model.Model) error
	CalcPositionError(m *model.Model, q []float64, err []float64, row int)
	CalcJacobian(m *model.Model, q []float64, g *mat.Dense, row int)
	CalcVelocityError(m *model.Model, q, qdot []float64, g *mat.Dense, errd []float64, row int)
	CalcGamma(m *model.Model, q, qdot []float64, g *mat.Dense, gamma []float64, row int)
}

// customConstraint adapts a Custom implementation onto the internal
// variant contract.
type customConstraint struct {
	rowBlock
	impl Custom
}

func (c *customConstraint) Kind() Kind { return KindCustom }

func (c *customConstraint) Bind(m *model.Model) error { return c.impl.Bind(m) }

func (c *customConstraint) CalcPositionError(m *model.Model, q []float64, err []float64) {
	c.impl.CalcPositionError(m, q, err, c.rowOffset)
}

func (c *customConstraint) CalcJacobian(m *model.Model, q []float64, g *mat.Dense) {
	c.impl.CalcJacobian(m, q, g, c.rowOffset)
}

func (c *customConstraint) CalcVelocityError(m *model.Model, q, qdot []float64, g *mat.Dense, errd []float64) {
	c.impl.CalcVelocityError(m, q, qdot, g, errd, c.rowOffset)
}

func (c *customConstraint) CalcGamma(m *model.Model, q, qdot []float64, g *mat.Dense, target, gamma []float64) {
	c.impl.CalcGamma(m, q, qdot, g, gamma, c.rowOffset)
}
