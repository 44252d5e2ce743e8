package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rbsim/internal/linalg"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 5.0
	DefaultTau      = 0.1
	DefaultTol      = 1e-10
	DefaultMaxIter  = 50
)

type Config struct {
	Scenario   string           `yaml:"scenario"`
	Method     string           `yaml:"method"`
	Solver     string           `yaml:"solver"`
	Dt         float64          `yaml:"dt"`
	Duration   float64          `yaml:"duration"`
	Seed       int64            `yaml:"seed"`
	InitState  InitStateConfig  `yaml:"init_state"`
	Stabilizer StabilizerConfig `yaml:"stabilizer"`
	Assembly   AssemblyConfig   `yaml:"assembly"`
}

type InitStateConfig struct {
	Theta  float64 `yaml:"theta"`
	Omega  float64 `yaml:"omega"`
	Theta2 float64 `yaml:"theta2"`
	Omega2 float64 `yaml:"omega2"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
}

// StabilizerConfig tunes Baumgarte stabilization of closed loops.
type StabilizerConfig struct {
	Enabled bool    `yaml:"enabled"`
	Tau     float64 `yaml:"tau"`
}

// AssemblyConfig tunes the initial pose and velocity projection.
type AssemblyConfig struct {
	Tol     float64 `yaml:"tol"`
	MaxIter int     `yaml:"max_iter"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: "falling_rod",
		Method:   "direct",
		Solver:   "lu",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		InitState: InitStateConfig{
			Theta: 0.3,
			Y:     1.0,
		},
		Stabilizer: StabilizerConfig{
			Enabled: true,
			Tau:     DefaultTau,
		},
		Assembly: AssemblyConfig{
			Tol:     DefaultTol,
			MaxIter: DefaultMaxIter,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LinearSolver parses the configured linear solver name.
func (c *Config) LinearSolver() (linalg.Solver, error) {
	return linalg.ParseSolver(c.Solver)
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %g", c.Duration)
	}
	if c.Stabilizer.Enabled && c.Stabilizer.Tau <= 0 {
		return fmt.Errorf("config: stabilizer tau must be positive, got %g", c.Stabilizer.Tau)
	}
	switch c.Method {
	case "direct", "rangespace", "nullspace", "kokkevis":
	default:
		return fmt.Errorf("config: unknown method %q", c.Method)
	}
	if _, err := c.LinearSolver(); err != nil {
		return err
	}
	return nil
}
