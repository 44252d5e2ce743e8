// Package scenario builds the demo systems the simulator can run: a
// rod falling onto ground contacts, a four-bar linkage closed by a
// loop constraint, and a spherical pendulum.
package scenario

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rbsim/internal/config"
	"github.com/san-kum/rbsim/internal/constraint"
	"github.com/san-kum/rbsim/internal/model"
	"github.com/san-kum/rbsim/internal/spatial"
)

// Trace marks a body-fixed point worth following in output.
type Trace struct {
	Body  int
	Point mgl64.Vec3
	Label string
}

// System bundles a model, its constraint set and a consistent initial
// state.
type System struct {
	Name      string
	Model     *model.Model
	Set       *constraint.Set
	Q         []float64
	QDot      []float64
	DOFLabels []string
	Traces    []Trace

	// Activate reports whether the constraint set should act in the
	// given configuration. Nil means the set is always active. Once a
	// simulation sees true it keeps the set engaged.
	Activate func(m *model.Model, q []float64) bool
}

// Names lists the available scenarios.
func Names() []string {
	return []string{"falling_rod", "four_bar", "spherical_pendulum"}
}

// Build constructs the scenario named in cfg with its initial state
// already projected onto the constraint manifold.
func Build(cfg *config.Config) (*System, error) {
	switch cfg.Scenario {
	case "falling_rod":
		return fallingRod(cfg)
	case "four_bar":
		return fourBar(cfg)
	case "spherical_pendulum":
		return sphericalPendulum(cfg)
	default:
		return nil, fmt.Errorf("scenario: unknown scenario %q", cfg.Scenario)
	}
}

// fallingRod is a planar rod above flat ground, with contact points at
// both ends. The rod's pose is carried by two prismatic joints and one
// revolute joint through massless carriers.
func fallingRod(cfg *config.Config) (*System, error) {
	const (
		mass   = 1.0
		length = 1.0
	)
	m := model.New()
	b1, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointPrismatic, mgl64.Vec3{1, 0, 0}, model.Body{Name: "carrier_x"})
	b2, _ := m.AddBody(b1, spatial.IdentityTransform(), model.JointPrismatic, mgl64.Vec3{0, 1, 0}, model.Body{Name: "carrier_y"})
	izz := mass * length * length / 12
	rod, _ := m.AddBody(b2, spatial.IdentityTransform(), model.JointRevolute, mgl64.Vec3{0, 0, 1}, model.Body{
		Name:    "rod",
		Mass:    mass,
		Inertia: mgl64.Diag3(mgl64.Vec3{izz, izz, izz}),
	})

	s := &constraint.Set{}
	up := mgl64.Vec3{0, 1, 0}
	half := length / 2
	if _, err := s.AddContactPoint(rod, mgl64.Vec3{-half, 0, 0}, up, "left_end", false); err != nil {
		return nil, err
	}
	if _, err := s.AddContactPoint(rod, mgl64.Vec3{half, 0, 0}, up, "right_end", false); err != nil {
		return nil, err
	}
	if err := s.Bind(m); err != nil {
		return nil, err
	}

	ends := []mgl64.Vec3{{-half, 0, 0}, {half, 0, 0}}
	return &System{
		Name:      "falling_rod",
		Model:     m,
		Set:       s,
		Q:         []float64{cfg.InitState.X, cfg.InitState.Y, cfg.InitState.Theta},
		QDot:      []float64{cfg.InitState.VX, cfg.InitState.VY, cfg.InitState.Omega},
		DOFLabels: []string{"x", "y", "theta"},
		Traces: []Trace{
			{Body: rod, Point: ends[0], Label: "left end"},
			{Body: rod, Point: ends[1], Label: "right end"},
		},
		Activate: func(m *model.Model, q []float64) bool {
			m.UpdateKinematicsCustom(q, nil, nil)
			for _, p := range ends {
				if m.BodyToBase(rod, p).Y() <= 0 {
					return true
				}
			}
			return false
		},
	}, nil
}

// fourBar is a parallelogram linkage: crank, coupler and rocker in an
// open chain, with the rocker tip pinned back to the ground by a loop
// constraint on the two translation directions in the plane.
func fourBar(cfg *config.Config) (*System, error) {
	const (
		crankLen   = 0.5
		couplerLen = 1.0
		linkMass   = 1.0
	)
	m := model.New()
	link := func(length float64, name string) model.Body {
		izz := linkMass * length * length / 12
		return model.Body{
			Name:    name,
			Mass:    linkMass,
			COM:     mgl64.Vec3{length / 2, 0, 0},
			Inertia: mgl64.Diag3(mgl64.Vec3{izz, izz, izz}),
		}
	}
	zAxis := mgl64.Vec3{0, 0, 1}
	b1, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointRevolute, zAxis, link(crankLen, "crank"))
	b2, _ := m.AddBody(b1, spatial.Translation(mgl64.Vec3{crankLen, 0, 0}), model.JointRevolute, zAxis, link(couplerLen, "coupler"))
	b3, _ := m.AddBody(b2, spatial.Translation(mgl64.Vec3{couplerLen, 0, 0}), model.JointRevolute, zAxis, link(crankLen, "rocker"))

	s := &constraint.Set{}
	axes := []spatial.Vector{
		spatial.NewVector(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}),
		spatial.NewVector(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}),
	}
	if _, err := s.AddLoopConstraint(0, b3,
		spatial.Translation(mgl64.Vec3{couplerLen, 0, 0}),
		spatial.Translation(mgl64.Vec3{crankLen, 0, 0}),
		axes, nil, nil, cfg.Stabilizer.Enabled, cfg.Stabilizer.Tau, "rocker_pin"); err != nil {
		return nil, err
	}
	if err := s.Bind(m); err != nil {
		return nil, err
	}

	// The parallelogram closes exactly at q = (theta, -theta, theta+pi).
	theta := cfg.InitState.Theta
	qGuess := []float64{theta, -theta, theta + math.Pi}
	q := make([]float64, m.QSize)
	ok, err := s.CalcAssemblyQ(m, qGuess, uniform(m.DOFCount, 1), cfg.Assembly.Tol, cfg.Assembly.MaxIter, q)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("scenario: four_bar assembly did not converge")
	}

	qdot := make([]float64, m.DOFCount)
	qdotGuess := make([]float64, m.DOFCount)
	qdotGuess[0] = cfg.InitState.Omega
	if err := s.CalcAssemblyQDot(m, q, qdotGuess, uniform(m.DOFCount, 1), qdot); err != nil {
		return nil, err
	}

	return &System{
		Name:      "four_bar",
		Model:     m,
		Set:       s,
		Q:         q,
		QDot:      qdot,
		DOFLabels: []string{"crank", "coupler", "rocker"},
		Traces: []Trace{
			{Body: b2, Point: mgl64.Vec3{couplerLen / 2, 0, 0}, Label: "coupler mid"},
			{Body: b3, Point: mgl64.Vec3{crankLen, 0, 0}, Label: "rocker tip"},
		},
	}, nil
}

// sphericalPendulum is a rod hanging from a ball joint. Its constraint
// set is empty; it exercises quaternion state integration.
func sphericalPendulum(cfg *config.Config) (*System, error) {
	const (
		mass   = 1.0
		length = 1.0
	)
	m := model.New()
	ixx := mass * length * length / 12
	bob, _ := m.AddBody(0, spatial.IdentityTransform(), model.JointSpherical, mgl64.Vec3{}, model.Body{
		Name:    "rod",
		Mass:    mass,
		COM:     mgl64.Vec3{0, -length / 2, 0},
		Inertia: mgl64.Diag3(mgl64.Vec3{ixx, 0.01 * ixx, ixx}),
	})

	s := &constraint.Set{}
	if err := s.Bind(m); err != nil {
		return nil, err
	}

	q := make([]float64, m.QSize)
	m.SetQuaternion(bob, mgl64.QuatRotate(cfg.InitState.Theta, mgl64.Vec3{1, 0, 0}), q)
	qdot := make([]float64, m.DOFCount)
	qdot[1] = cfg.InitState.Omega

	return &System{
		Name:      "spherical_pendulum",
		Model:     m,
		Set:       s,
		Q:         q,
		QDot:      qdot,
		DOFLabels: []string{"wx", "wy", "wz"},
		Traces: []Trace{
			{Body: bob, Point: mgl64.Vec3{0, -length, 0}, Label: "tip"},
		},
	}, nil
}

func uniform(n int, v float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = v
	}
	return w
}
