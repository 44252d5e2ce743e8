package sim

// State is a snapshot of the generalized coordinates, velocities and
// accelerations at one instant.
type State struct {
	T     float64
	Q     []float64
	QDot  []float64
	QDDot []float64
}

func (s State) Clone() State {
	c := State{T: s.T}
	c.Q = append(c.Q, s.Q...)
	c.QDot = append(c.QDot, s.QDot...)
	c.QDDot = append(c.QDDot, s.QDDot...)
	return c
}

type Observer interface {
	OnStep(s State)
}

type Metric interface {
	Name() string
	Observe(s State)
	Value() float64
	Reset()
}

type RunConfig struct {
	Dt       float64
	Duration float64
}

type Result struct {
	States     []State
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int

	// ImpactTime is the instant contact impulses were applied, or -1
	// when the run never engaged its constraint set that way.
	ImpactTime float64
}
