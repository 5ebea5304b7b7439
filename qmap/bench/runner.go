// Package bench compares baseline placement against similarity-seeded
// transfer: per circuit it produces mappings, routes each several times and
// records schedule lengths, placement times and timeouts.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/embedding"
	"github.com/simmap/simmap/qmap/store"
)

// Mode selects how mappings are produced.
type Mode string

const (
	// ModeBaseline places every mapping from scratch.
	ModeBaseline Mode = "baseline"
	// ModeSimilarity transfers the mappings of retrieved donors.
	ModeSimilarity Mode = "similarity"
)

// Orchestrator is the subset of *optimize.Orchestrator the runner uses.
type Orchestrator interface {
	Place(ctx context.Context, circuit qmap.Circuit, deadline time.Duration, seed *qmap.Mapping) (*qmap.Mapping, error)
	Route(ctx context.Context, mapping *qmap.Mapping, deadline time.Duration) (*qmap.Routing, error)
}

// Retriever returns donor candidates. *store.Store implements it.
type Retriever interface {
	Nearest(ctx context.Context, query []float32, k int) ([]store.Donor, error)
}

// Config groups benchmark parameters.
type Config struct {
	Mappings     int           `yaml:"mappings"`      // baseline placements per circuit
	Routings     int           `yaml:"routings"`      // routing attempts per mapping
	Donors       int           `yaml:"donors"`        // k nearest donors in similarity mode
	Refine       bool          `yaml:"refine"`        // run placement seeded with each transferred mapping
	PlaceTimeout time.Duration `yaml:"place_timeout"` // per placement call
	RouteTimeout time.Duration `yaml:"route_timeout"` // per routing call
}

// DefaultConfig returns the benchmark sizes used by the original study.
func DefaultConfig() Config {
	return Config{
		Mappings:     5,
		Routings:     5,
		Donors:       5,
		PlaceTimeout: 10 * time.Second,
		RouteTimeout: 10 * time.Second,
	}
}

// Validate rejects configurations that would record no measurements.
func (c Config) Validate() error {
	if c.Mappings <= 0 || c.Routings <= 0 || c.Donors <= 0 {
		return fmt.Errorf("bench mappings, routings and donors must be > 0, got %d, %d and %d",
			c.Mappings, c.Routings, c.Donors)
	}
	if c.PlaceTimeout < 0 || c.RouteTimeout < 0 {
		return fmt.Errorf("bench timeouts must be >= 0, got %v and %v", c.PlaceTimeout, c.RouteTimeout)
	}
	return nil
}

// Result summarizes one circuit.
type Result struct {
	Circuit          string
	Mode             Mode
	Qubits           int
	Gates            int
	Depth            int
	Mappings         int
	Routed           int
	Timeouts         int
	AvgSteps         float64 // over routed schedules; NaN when none routed
	BestAvgSteps     float64 // lowest per-mapping average; NaN when none routed
	MeanPlaceSeconds float64
	Best             *qmap.Mapping // mapping with the lowest average schedule length
}

// Runner executes benchmarks.
type Runner struct {
	orch      Orchestrator
	embedder  embedding.Embedder
	retriever Retriever
	rng       *qmap.PartitionedRNG
	cfg       Config
}

// NewRunner creates a Runner. embedder and retriever may be nil when only
// baseline runs are made.
func NewRunner(orch Orchestrator, embedder embedding.Embedder, retriever Retriever, rng *qmap.PartitionedRNG, cfg Config) *Runner {
	return &Runner{orch: orch, embedder: embedder, retriever: retriever, rng: rng, cfg: cfg}
}

// Run benchmarks one circuit in the given mode.
func (r *Runner) Run(ctx context.Context, mode Mode, name string, c qmap.Circuit) (Result, error) {
	switch mode {
	case ModeBaseline:
		return r.Baseline(ctx, name, c)
	case ModeSimilarity:
		return r.Similarity(ctx, name, c)
	default:
		return Result{}, fmt.Errorf("unknown benchmark mode %q", mode)
	}
}

// Baseline places cfg.Mappings mappings from scratch.
func (r *Runner) Baseline(ctx context.Context, name string, c qmap.Circuit) (Result, error) {
	acc := newAccumulator(name, ModeBaseline, c)
	for i := 0; i < r.cfg.Mappings; i++ {
		start := time.Now()
		m, err := r.orch.Place(ctx, c, r.cfg.PlaceTimeout, nil)
		if err != nil {
			return Result{}, fmt.Errorf("%s: placement %d: %w", name, i, err)
		}
		acc.placed(time.Since(start))
		if err := r.routeAll(ctx, acc, m); err != nil {
			return Result{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return acc.result(), nil
}

// Similarity retrieves cfg.Donors donors and transfers each onto c.
func (r *Runner) Similarity(ctx context.Context, name string, c qmap.Circuit) (Result, error) {
	if r.embedder == nil || r.retriever == nil {
		return Result{}, errors.New("similarity mode needs an embedder and a retriever")
	}
	text, err := embedding.Text(c)
	if err != nil {
		return Result{}, err
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%s: embedding: %w", name, err)
	}
	donors, err := r.retriever.Nearest(ctx, vec, r.cfg.Donors)
	if err != nil {
		return Result{}, fmt.Errorf("%s: retrieving donors: %w", name, err)
	}
	if len(donors) == 0 {
		return Result{}, fmt.Errorf("%s: no donors found", name)
	}

	acc := newAccumulator(name, ModeSimilarity, c)
	for i, d := range donors {
		start := time.Now()
		mapper, err := qmap.NewSimilarityMapper(c, d.Mapping, r.rng.ForSubsystem(qmap.SubsystemTransfer))
		if err != nil {
			return Result{}, fmt.Errorf("%s: donor %d: %w", name, i, err)
		}
		m := mapper.BestEffortTransfer()
		if r.cfg.Refine {
			if m, err = r.orch.Place(ctx, c, r.cfg.PlaceTimeout, m); err != nil {
				return Result{}, fmt.Errorf("%s: refining donor %d: %w", name, i, err)
			}
		}
		acc.placed(time.Since(start))
		logrus.Debugf("bench: %s donor %d at distance %.4f", name, i, d.Distance)
		if err := r.routeAll(ctx, acc, m); err != nil {
			return Result{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return acc.result(), nil
}

func (r *Runner) routeAll(ctx context.Context, acc *accumulator, m *qmap.Mapping) error {
	steps := make([]float64, 0, r.cfg.Routings)
	for j := 0; j < r.cfg.Routings; j++ {
		routing, err := r.orch.Route(ctx, m, r.cfg.RouteTimeout)
		if err != nil {
			return fmt.Errorf("routing %d: %w", j, err)
		}
		if routing == nil {
			acc.timeouts++
			continue
		}
		steps = append(steps, float64(routing.NumSteps()))
	}
	acc.routed(m, steps)
	return nil
}

type accumulator struct {
	res        Result
	placeTimes []float64
	steps      []float64
	timeouts   int
}

func newAccumulator(name string, mode Mode, c qmap.Circuit) *accumulator {
	return &accumulator{res: Result{
		Circuit:      name,
		Mode:         mode,
		Qubits:       len(c.Qubits()),
		Gates:        len(c.Gates),
		Depth:        c.Depth(),
		BestAvgSteps: math.NaN(),
	}}
}

func (a *accumulator) placed(d time.Duration) {
	a.res.Mappings++
	a.placeTimes = append(a.placeTimes, d.Seconds())
}

func (a *accumulator) routed(m *qmap.Mapping, steps []float64) {
	if len(steps) == 0 {
		return
	}
	a.steps = append(a.steps, steps...)
	if avg := stat.Mean(steps, nil); math.IsNaN(a.res.BestAvgSteps) || avg < a.res.BestAvgSteps {
		a.res.BestAvgSteps = avg
		a.res.Best = m
	}
}

func (a *accumulator) result() Result {
	res := a.res
	res.Routed = len(a.steps)
	res.Timeouts = a.timeouts
	res.AvgSteps = math.NaN()
	if len(a.steps) > 0 {
		res.AvgSteps = stat.Mean(a.steps, nil)
	}
	if len(a.placeTimes) > 0 {
		res.MeanPlaceSeconds = stat.Mean(a.placeTimes, nil)
	}
	return res
}
