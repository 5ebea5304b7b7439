package optimize

import (
	"fmt"
	"time"
)

// RewardCriticality orders operations by how many later operations depend on them.
const RewardCriticality = "criticality"

// PlacementConfig groups placement search parameters.
type PlacementConfig struct {
	Anneal             AnnealParams  `yaml:"anneal"`               // base parameters, scaled by circuit depth
	IncludeResourceOps bool          `yaml:"include_resource_ops"` // t/tdg gates contribute to the cost
	Timeout            time.Duration `yaml:"timeout"`              // default deadline for CLI callers
}

// RoutingConfig groups routing search parameters.
type RoutingConfig struct {
	Anneal              AnnealParams  `yaml:"anneal"`
	RewardStrategy      string        `yaml:"reward_strategy"`        // "criticality" (default)
	OrderFraction       float64       `yaml:"order_fraction"`         // share of the ready set routed per step, in [0, 1]
	TakeFirstResourceOp bool          `yaml:"take_first_resource_op"` // route ready t gates before cx gates
	Timeout             time.Duration `yaml:"timeout"`                // default deadline for CLI callers
}

// Config groups the orchestrator's search parameters.
type Config struct {
	Placement PlacementConfig `yaml:"placement"`
	Routing   RoutingConfig   `yaml:"routing"`
}

// DefaultConfig returns the parameters the orchestrator was tuned with.
func DefaultConfig() Config {
	return Config{
		Placement: PlacementConfig{
			Anneal:             AnnealParams{Iterations: 100, CoolingA: 0.1, CoolingB: 0.1},
			IncludeResourceOps: true,
			Timeout:            10 * time.Second,
		},
		Routing: RoutingConfig{
			Anneal:              AnnealParams{Iterations: 10, CoolingA: 0.1, CoolingB: 0.1},
			RewardStrategy:      RewardCriticality,
			OrderFraction:       1,
			TakeFirstResourceOp: false,
			Timeout:             10 * time.Second,
		},
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	groups := []struct {
		name   string
		anneal AnnealParams
	}{{"placement", c.Placement.Anneal}, {"routing", c.Routing.Anneal}}
	for _, g := range groups {
		name, a := g.name, g.anneal
		if a.Iterations < 0 {
			return fmt.Errorf("%s anneal iterations must be >= 0, got %d", name, a.Iterations)
		}
		if a.CoolingA < 0 || a.CoolingA >= 1 {
			return fmt.Errorf("%s anneal cooling_a must be in [0, 1), got %v", name, a.CoolingA)
		}
		if a.CoolingB < 0 {
			return fmt.Errorf("%s anneal cooling_b must be >= 0, got %v", name, a.CoolingB)
		}
	}
	if c.Routing.OrderFraction < 0 || c.Routing.OrderFraction > 1 {
		return fmt.Errorf("routing order_fraction must be in [0, 1], got %v", c.Routing.OrderFraction)
	}
	if c.Routing.RewardStrategy != RewardCriticality {
		return fmt.Errorf("unknown routing reward_strategy %q", c.Routing.RewardStrategy)
	}
	return nil
}
