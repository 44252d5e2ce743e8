package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// ContactConstraint pins a body-fixed point against one or more world
// frame directions. Each direction contributes one row; co-located
// directions on the same body share the point Jacobian. Contacts are
// velocity-level constraints, so their position-error rows stay zero.
type ContactConstraint struct {
	rowBlock

	Body    int
	Point   mgl64.Vec3
	Normals []mgl64.Vec3

	movable int
	local   mgl64.Vec3
	jac     *mat.Dense
}

func (c *ContactConstraint) Kind() Kind { return KindContact }

func (c *ContactConstraint) Bind(m *model.Model) error {
	if !m.ValidBodyID(c.Body) {
		return ErrBody
	}
	c.movable, c.local = m.ResolvePoint(c.Body, c.Point)
	c.jac = mat.NewDense(3, m.DOFCount, nil)
	return nil
}

func (c *ContactConstraint) CalcPositionError(m *model.Model, q []float64, err []float64) {
	for r := c.rowOffset; r < c.rowOffset+c.rows; r++ {
		err[r] = 0
	}
}

func (c *ContactConstraint) CalcJacobian(m *model.Model, q []float64, g *mat.Dense) {
	m.PointJacobian(c.movable, c.local, c.jac)
	_, nd := c.jac.Dims()
	for k, n := range c.Normals {
		row := c.rowOffset + k
		for j := 0; j < nd; j++ {
			g.Set(row, j, n[0]*c.jac.At(0, j)+n[1]*c.jac.At(1, j)+n[2]*c.jac.At(2, j))
		}
	}
}

func (c *ContactConstraint) CalcVelocityError(m *model.Model, q, qdot []float64, g *mat.Dense, errd []float64) {
	_, nd := g.Dims()
	for k := range c.Normals {
		row := c.rowOffset + k
		s := 0.0
		for j := 0; j < nd; j++ {
			s += g.At(row, j) * qdot[j]
		}
		errd[row] = s
	}
}

// CalcGamma writes target minus the point acceleration along each
// direction, evaluated at zero joint acceleration.
func (c *ContactConstraint) CalcGamma(m *model.Model, q, qdot []float64, g *mat.Dense, target, gamma []float64) {
	pa := m.PointAcceleration(c.movable, c.local)
	for k, n := range c.Normals {
		row := c.rowOffset + k
		gamma[row] = target[row] - n.Dot(pa)
	}
}

// MovableBody returns the movable body carrying the contact point.
func (c *ContactConstraint) MovableBody() int { return c.movable }

// LocalPoint returns the contact point in the movable body's frame.
func (c *ContactConstraint) LocalPoint() mgl64.Vec3 { return c.local }

// ForceJacobian returns the spatial test force in base coordinates for
// a unit force along direction k at the contact point.
func (c *ContactConstraint) ForceJacobian(m *model.Model, k int) spatial.Vector {
	p := m.BodyToBase(c.movable, c.local)
	n := c.Normals[k]
	return spatial.NewVector(p.Cross(n), n)
}

// PointAccelerationError returns the prescribed-minus-actual
// constraint acceleration for direction k given the current body
// accelerations.
func (c *ContactConstraint) PointAccelerationError(m *model.Model, target []float64, k int) float64 {
	pa := m.PointAcceleration(c.movable, c.local)
	return target[c.rowOffset+k] - c.Normals[k].Dot(pa)
}
