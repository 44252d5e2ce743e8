package sim

import (
	"context"
	"sync"

	"github.com/san-kum/rbsim/internal/config"
	"github.com/san-kum/rbsim/internal/scenario"
)

// Sweep runs one simulation per config concurrently. Each run builds
// its own system, so the goroutines never share a model.
type Sweep struct {
	configs []*config.Config
}

func NewSweep(configs []*config.Config) *Sweep {
	return &Sweep{configs: configs}
}

func (s *Sweep) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(s.configs))
	errs := make([]error, len(s.configs))

	var wg sync.WaitGroup
	for i, cfg := range s.configs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()

			sys, err := scenario.Build(cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			method, err := ParseMethod(cfg.Method)
			if err != nil {
				errs[idx] = err
				return
			}
			solver, err := cfg.LinearSolver()
			if err != nil {
				errs[idx] = err
				return
			}
			sys.Set.Solver = solver

			sim := New(sys, method)
			sim.AddMetric(NewEnergyDrift(sys))
			sim.AddMetric(NewConstraintDrift(sys))
			results[idx], errs[idx] = sim.Run(ctx, RunConfig{Dt: cfg.Dt, Duration: cfg.Duration})
		}(i, cfg)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
