package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// LoopConstraint closes a kinematic loop between a predecessor and a
// successor body. Each axis, expressed in the predecessor's constraint
// frame, contributes one row; PosLevel and VelLevel gate which error
// levels the row enforces and stabilizes.
type LoopConstraint struct {
	rowBlock

	Predecessor int
	Successor   int
	FrameP      spatial.Transform
	FrameS      spatial.Transform
	Axes        []spatial.Vector
	PosLevel    []bool
	VelLevel    []bool

	mp, ms     int
	xp, xs     spatial.Transform
	jacP, jacS *mat.Dense
}

func (l *LoopConstraint) Kind() Kind { return KindLoop }

func (l *LoopConstraint) Bind(m *model.Model) error {
	if !validLoopBody(m, l.Predecessor) || !validLoopBody(m, l.Successor) {
		return ErrBody
	}
	l.mp, l.xp = resolveFrame(m, l.Predecessor, l.FrameP)
	l.ms, l.xs = resolveFrame(m, l.Successor, l.FrameS)
	l.jacP = mat.NewDense(6, m.DOFCount, nil)
	l.jacS = mat.NewDense(6, m.DOFCount, nil)
	return nil
}

// validLoopBody accepts the base body as a loop anchor; contact
// constraints keep the stricter movable-body check.
func validLoopBody(m *model.Model, id int) bool {
	return id == 0 || m.ValidBodyID(id)
}

// resolveFrame folds a frame on a fixed body onto its movable parent.
func resolveFrame(m *model.Model, body int, x spatial.Transform) (int, spatial.Transform) {
	if !m.IsFixedBodyID(body) {
		return body, x
	}
	return m.MovableBodyID(body), x.Mul(m.FixedBodyTransform(body))
}

// worldFrame returns the transform from base coordinates into the
// constraint frame attached to movable body i.
func worldFrame(m *model.Model, i int, x spatial.Transform) spatial.Transform {
	return x.Mul(m.XBase[i])
}

func (l *LoopConstraint) CalcPositionError(m *model.Model, q []float64, err []float64) {
	xp := worldFrame(m, l.mp, l.xp)
	xs := worldFrame(m, l.ms, l.xs)

	// Relative pose of the successor frame expressed in the
	// predecessor frame.
	rel := xp.E.Mul3(xs.E.Transpose())
	d := xp.E.Mul3x1(xs.R.Sub(xp.R))
	rot := mgl64.Vec3{
		0.5 * (rel.At(2, 1) - rel.At(1, 2)),
		0.5 * (rel.At(0, 2) - rel.At(2, 0)),
		0.5 * (rel.At(1, 0) - rel.At(0, 1)),
	}
	e := spatial.NewVector(rot, d)

	for k, axis := range l.Axes {
		row := l.rowOffset + k
		if l.PosLevel[k] {
			err[row] = axis.Dot(e)
		} else {
			err[row] = 0
		}
	}
}

func (l *LoopConstraint) CalcJacobian(m *model.Model, q []float64, g *mat.Dense) {
	m.SpatialJacobian(l.mp, l.jacP)
	m.SpatialJacobian(l.ms, l.jacS)
	xp := worldFrame(m, l.mp, l.xp)

	_, nd := g.Dims()
	for j := 0; j < nd; j++ {
		var col spatial.Vector
		for r := 0; r < 6; r++ {
			col[r] = l.jacS.At(r, j) - l.jacP.At(r, j)
		}
		col = xp.Apply(col)
		for k, axis := range l.Axes {
			g.Set(l.rowOffset+k, j, axis.Dot(col))
		}
	}
}

func (l *LoopConstraint) CalcVelocityError(m *model.Model, q, qdot []float64, g *mat.Dense, errd []float64) {
	_, nd := g.Dims()
	for k := range l.Axes {
		row := l.rowOffset + k
		s := 0.0
		for j := 0; j < nd; j++ {
			s += g.At(row, j) * qdot[j]
		}
		errd[row] = s
	}
}

// CalcGamma accounts for the Jacobian time derivative: the relative
// acceleration of the frames at zero joint acceleration plus the
// velocity-product term from the moving predecessor frame.
func (l *LoopConstraint) CalcGamma(m *model.Model, q, qdot []float64, g *mat.Dense, target, gamma []float64) {
	xp := worldFrame(m, l.mp, l.xp)

	vp := xp.Apply(m.BodyVelocityBase(l.mp))
	vs := xp.Apply(m.BodyVelocityBase(l.ms))
	vrel := vs.Sub(vp)

	arel := xp.Apply(m.BodyAccelerationBase(l.ms).Sub(m.BodyAccelerationBase(l.mp)))
	bias := spatial.CrossMotion(vp, vrel)

	for k, axis := range l.Axes {
		row := l.rowOffset + k
		gamma[row] = -axis.Dot(arel) + axis.Dot(bias)
	}
}

// AddBaumgarteForces applies stabilization only at the levels each
// axis enforces.
func (l *LoopConstraint) AddBaumgarteForces(err, errd, gamma []float64) {
	if !l.stabilize || l.tau <= 0 {
		return
	}
	kd := 2 / l.tau
	kp := 1 / (l.tau * l.tau)
	for k := range l.Axes {
		row := l.rowOffset + k
		if l.VelLevel[k] {
			gamma[row] -= kd * errd[row]
		}
		if l.PosLevel[k] {
			gamma[row] -= kp * err[row]
		}
	}
}
