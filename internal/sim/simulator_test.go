package sim

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/rbsim/internal/config"
	"github.com/san-kum/rbsim/internal/scenario"
)

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"":           MethodDirect,
		"direct":     MethodDirect,
		"rangespace": MethodRangeSpace,
		"nullspace":  MethodNullSpace,
		"kokkevis":   MethodKokkevis,
	}
	for name, want := range cases {
		got, err := ParseMethod(name)
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseMethod(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseMethod("simplex"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestRunValidatesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "spherical_pendulum"
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := New(sys, MethodDirect)
	if _, err := s.Run(context.Background(), RunConfig{Dt: 0, Duration: 1}); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := s.Run(context.Background(), RunConfig{Dt: 0.01, Duration: 0}); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestSphericalPendulumConservesEnergy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "spherical_pendulum"
	cfg.InitState.Theta = 0.8
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := New(sys, MethodDirect)
	drift := NewEnergyDrift(sys)
	s.AddMetric(drift)

	res, err := s.Run(context.Background(), RunConfig{Dt: 1e-3, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.StepsTaken != 1000 {
		t.Errorf("expected 1000 steps, got %d", res.StepsTaken)
	}
	if d := res.Metrics["energy_drift"]; d > 0.05 {
		t.Errorf("energy drift %g too large", d)
	}

	// Quaternion coordinates stay on the unit sphere.
	last := res.States[len(res.States)-1]
	var n float64
	for _, v := range last.Q {
		n += v * v
	}
	if math.Abs(n-1) > 1e-9 {
		t.Errorf("quaternion drifted off the unit sphere: %g", n)
	}
}

func TestFourBarHoldsLoop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "four_bar"
	cfg.InitState.Theta = 0.4
	cfg.InitState.Omega = 1.0
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := New(sys, MethodDirect)
	drift := NewConstraintDrift(sys)
	s.AddMetric(drift)

	if _, err := s.Run(context.Background(), RunConfig{Dt: 1e-3, Duration: 0.5}); err != nil {
		t.Fatal(err)
	}
	if v := drift.Value(); v > 1e-2 {
		t.Errorf("loop constraint violated by %g", v)
	}
}

func TestFallingRodImpact(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "falling_rod"
	cfg.InitState.Y = 1.0
	cfg.InitState.Theta = 0
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := New(sys, MethodKokkevis)
	res, err := s.Run(context.Background(), RunConfig{Dt: 1e-3, Duration: 1.5})
	if err != nil {
		t.Fatal(err)
	}

	if res.ImpactTime < 0 {
		t.Fatal("rod never reached the ground")
	}
	freeFall := math.Sqrt(2 * 1.0 / 9.81)
	if math.Abs(res.ImpactTime-freeFall) > 0.05 {
		t.Errorf("impact at t=%g, expected near %g", res.ImpactTime, freeFall)
	}

	last := res.States[len(res.States)-1]
	if math.Abs(last.Q[1]) > 0.05 {
		t.Errorf("rod rests at height %g, want near 0", last.Q[1])
	}
	if math.Abs(last.QDot[1]) > 1e-6 {
		t.Errorf("residual vertical speed %g after inelastic landing", last.QDot[1])
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "spherical_pendulum"
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(sys, MethodDirect)
	if _, err := s.Run(ctx, RunConfig{Dt: 1e-3, Duration: 1}); err == nil {
		t.Error("expected context error")
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "spherical_pendulum"
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := New(sys, MethodDirect)
	calls := 0
	err = s.RunWithCallback(context.Background(), RunConfig{Dt: 1e-3, Duration: 10}, func(st State) bool {
		calls++
		return calls < 5
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 5 {
		t.Errorf("expected 5 callbacks, got %d", calls)
	}
}

func TestSweep(t *testing.T) {
	a := config.DefaultConfig()
	a.Duration = 0.2
	b := config.DefaultConfig()
	b.Scenario = "four_bar"
	b.Method = "rangespace"
	b.Duration = 0.2

	results, err := NewSweep([]*config.Config{a, b}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r == nil || r.StepsTaken == 0 {
			t.Errorf("result %d empty", i)
		}
	}
}
