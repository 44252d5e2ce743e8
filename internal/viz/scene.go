package viz

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rbsim/internal/scenario"
)

const trailCap = 120

// Scene draws a scenario's bodies into a canvas, keeping a short trail
// of the last traced point.
type Scene struct {
	sys   *scenario.System
	trail []mgl64.Vec3
}

func NewScene(sys *scenario.System) *Scene {
	return &Scene{sys: sys, trail: make([]mgl64.Vec3, 0, trailCap)}
}

// bounds returns the world rectangle the scenario plays out in.
func (s *Scene) bounds() (minX, maxX, minY, maxY float64) {
	switch s.sys.Name {
	case "falling_rod":
		return -1.6, 1.6, -0.2, 2.2
	case "four_bar":
		return -0.8, 1.8, -1.2, 1.2
	case "spherical_pendulum":
		return -1.4, 1.4, -1.2, 0.4
	}
	return -2, 2, -2, 2
}

// Draw renders the system at configuration q. Kinematics are refreshed
// as a side effect.
func (s *Scene) Draw(c *Canvas, q []float64) {
	m := s.sys.Model
	m.UpdateKinematicsCustom(q, nil, nil)

	c.Clear()
	minX, maxX, minY, maxY := s.bounds()
	vp := NewViewport(c, minX, maxX, minY, maxY)

	if s.sys.Name == "falling_rod" {
		vp.Segment(minX, 0, maxX, 0)
	}

	// Chain segments between movable body origins.
	origin := mgl64.Vec3{}
	for i := 1; i < m.NumBodies(); i++ {
		p := m.BodyToBase(i, origin)
		pp := m.BodyToBase(m.Parent[i], origin)
		vp.Segment(pp.X(), pp.Y(), p.X(), p.Y())
	}

	// Segments out to the traced points, markers on the points.
	for _, tr := range s.sys.Traces {
		p := m.BodyToBase(tr.Body, tr.Point)
		o := m.BodyToBase(tr.Body, mgl64.Vec3{})
		vp.Segment(o.X(), o.Y(), p.X(), p.Y())
		vp.Marker(p.X(), p.Y())
	}

	if len(s.sys.Traces) > 0 {
		tr := s.sys.Traces[len(s.sys.Traces)-1]
		s.trail = append(s.trail, m.BodyToBase(tr.Body, tr.Point))
		if len(s.trail) > trailCap {
			s.trail = s.trail[1:]
		}
		for _, p := range s.trail {
			vp.Point(p.X(), p.Y())
		}
	}
}

// ResetTrail drops the accumulated trail, for use after a state reset.
func (s *Scene) ResetTrail() { s.trail = s.trail[:0] }
