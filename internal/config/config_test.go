package config

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/rbsim/internal/linalg"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario != "falling_rod" {
		t.Errorf("expected scenario falling_rod, got %s", cfg.Scenario)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero dt")
	}

	cfg = DefaultConfig()
	cfg.Method = "magic"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown method")
	}

	cfg = DefaultConfig()
	cfg.Solver = "gauss"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown solver")
	}
}

func TestLinearSolver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver = "colpivqr"
	s, err := cfg.LinearSolver()
	if err != nil {
		t.Fatal(err)
	}
	if s != linalg.SolverColPivQR {
		t.Errorf("expected colpivqr, got %v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Scenario = "four_bar"
	cfg.Method = "rangespace"
	cfg.Stabilizer.Tau = 0.25

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scenario != "four_bar" || loaded.Method != "rangespace" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.Stabilizer.Tau != 0.25 {
		t.Errorf("expected tau 0.25, got %f", loaded.Stabilizer.Tau)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("falling_rod", "drop")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.InitState.Y != 1.0 {
		t.Errorf("expected y 1.0, got %f", cfg.InitState.Y)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("falling_rod", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "drop")
	if cfg != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("four_bar")
	if len(presets) == 0 {
		t.Error("expected presets for four_bar")
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestPresetsValidate(t *testing.T) {
	for scenario, m := range Presets {
		for name, cfg := range m {
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s/%s: %v", scenario, name, err)
			}
		}
	}
}
