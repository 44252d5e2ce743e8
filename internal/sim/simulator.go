// Package sim advances a constrained multibody system through time
// with a semi-implicit Euler scheme.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/rbsim/internal/dynamics"
	"github.com/san-kum/rbsim/internal/scenario"
)

// Method selects the constrained forward-dynamics formulation.
type Method int

const (
	MethodDirect Method = iota
	MethodRangeSpace
	MethodNullSpace
	MethodKokkevis
)

func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "direct"
	case MethodRangeSpace:
		return "rangespace"
	case MethodNullSpace:
		return "nullspace"
	case MethodKokkevis:
		return "kokkevis"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func ParseMethod(name string) (Method, error) {
	switch name {
	case "", "direct":
		return MethodDirect, nil
	case "rangespace":
		return MethodRangeSpace, nil
	case "nullspace":
		return MethodNullSpace, nil
	case "kokkevis":
		return MethodKokkevis, nil
	}
	return 0, fmt.Errorf("sim: unknown method %q", name)
}

type Simulator struct {
	sys    *scenario.System
	method Method

	metrics   []Metric
	observers []Observer

	q, qdot, qddot, tau []float64
	t                   float64
	active              bool
}

func New(sys *scenario.System, method Method) *Simulator {
	return &Simulator{
		sys:    sys,
		method: method,
		q:      append([]float64(nil), sys.Q...),
		qdot:   append([]float64(nil), sys.QDot...),
		qddot:  make([]float64, sys.Model.DOFCount),
		tau:    make([]float64, sys.Model.DOFCount),
		active: sys.Activate == nil,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// State exposes the live state buffers; callers must not retain them.
func (s *Simulator) State() State {
	return State{T: s.t, Q: s.q, QDot: s.qdot, QDDot: s.qddot}
}

// System returns the scenario this simulator advances.
func (s *Simulator) System() *scenario.System { return s.sys }

// Step advances the simulation by dt.
func (s *Simulator) Step(dt float64) error {
	_, err := s.step(dt)
	return err
}

// step advances the state by dt. Returns whether contact impulses were
// applied during the step.
func (s *Simulator) step(dt float64) (bool, error) {
	m := s.sys.Model
	impact := false

	if !s.active && s.sys.Activate(m, s.q) {
		// The set engages for the rest of the run; an inelastic
		// impulse removes the approach velocity first.
		qdotPlus := make([]float64, m.DOFCount)
		if err := s.sys.Set.ComputeImpulsesDirect(m, s.q, s.qdot, qdotPlus); err != nil {
			return false, err
		}
		copy(s.qdot, qdotPlus)
		s.active = true
		impact = true
	}

	var err error
	if !s.active {
		dynamics.ForwardDynamics(m, s.q, s.qdot, s.tau, s.qddot, nil)
	} else {
		switch s.method {
		case MethodDirect:
			err = s.sys.Set.ForwardDynamicsDirect(m, s.q, s.qdot, s.tau, s.qddot, nil)
		case MethodRangeSpace:
			err = s.sys.Set.ForwardDynamicsRangeSpaceSparse(m, s.q, s.qdot, s.tau, s.qddot, nil)
		case MethodNullSpace:
			err = s.sys.Set.ForwardDynamicsNullSpace(m, s.q, s.qdot, s.tau, s.qddot, nil)
		case MethodKokkevis:
			err = s.sys.Set.ForwardDynamicsKokkevis(m, s.q, s.qdot, s.tau, s.qddot)
		default:
			err = fmt.Errorf("sim: unknown method %v", s.method)
		}
	}
	if err != nil {
		return impact, err
	}

	for i := range s.qdot {
		s.qdot[i] += s.qddot[i] * dt
	}
	m.IntegrateQ(s.q, s.qdot, dt)
	s.t += dt
	return impact, nil
}

func (s *Simulator) validate(cfg RunConfig) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := s.validate(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		States:     make([]State, 0, steps+1),
		Times:      make([]float64, 0, steps+1),
		Metrics:    make(map[string]float64),
		ImpactTime: -1,
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.States = append(result.States, s.State().Clone())
	result.Times = append(result.Times, s.t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		st := s.State()
		for _, m := range s.metrics {
			m.Observe(st)
		}
		for _, obs := range s.observers {
			obs.OnStep(st)
		}

		before := s.t
		impact, err := s.step(cfg.Dt)
		if err != nil {
			return result, fmt.Errorf("sim: step %d at t=%.4f: %w", i, before, err)
		}
		if impact && result.ImpactTime < 0 {
			result.ImpactTime = before
		}

		result.StepsTaken++
		result.States = append(result.States, s.State().Clone())
		result.Times = append(result.Times, s.t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// RunWithCallback steps until the callback returns false, the duration
// elapses or the context is cancelled. The callback sees live buffers
// and must not retain them.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg RunConfig, callback func(State) bool) error {
	if err := s.validate(cfg); err != nil {
		return err
	}

	end := s.t + cfg.Duration
	for s.t < end {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.State()) {
			return nil
		}
		if _, err := s.step(cfg.Dt); err != nil {
			return fmt.Errorf("sim: t=%.4f: %w", s.t, err)
		}
	}
	return nil
}
