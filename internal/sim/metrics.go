package sim

import (
	"math"

	"github.com/san-kum/rbsim/internal/scenario"
)

// EnergyDrift tracks the relative change in total mechanical energy
// over a run.
type EnergyDrift struct {
	sys     *scenario.System
	initial float64
	last    float64
	seen    bool
}

func NewEnergyDrift(sys *scenario.System) *EnergyDrift {
	return &EnergyDrift{sys: sys}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(s State) {
	v := Energy(e.sys.Model, s.Q, s.QDot)
	if !e.seen {
		e.initial = v
		e.seen = true
	}
	e.last = v
}

func (e *EnergyDrift) Value() float64 {
	if !e.seen {
		return 0
	}
	scale := math.Abs(e.initial)
	if scale < 1 {
		scale = 1
	}
	return math.Abs(e.last-e.initial) / scale
}

func (e *EnergyDrift) Reset() { e.seen = false; e.initial = 0; e.last = 0 }

// ConstraintDrift tracks the worst position-level constraint violation
// seen during a run.
type ConstraintDrift struct {
	sys   *scenario.System
	worst float64
}

func NewConstraintDrift(sys *scenario.System) *ConstraintDrift {
	return &ConstraintDrift{sys: sys}
}

func (c *ConstraintDrift) Name() string { return "constraint_drift" }

func (c *ConstraintDrift) Observe(s State) {
	if err := c.sys.Set.CalcPositionError(c.sys.Model, s.Q, true); err != nil {
		return
	}
	for _, e := range c.sys.Set.Err {
		if v := math.Abs(e); v > c.worst {
			c.worst = v
		}
	}
}

func (c *ConstraintDrift) Value() float64 { return c.worst }

func (c *ConstraintDrift) Reset() { c.worst = 0 }
