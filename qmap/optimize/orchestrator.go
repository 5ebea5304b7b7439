// Package optimize drives the external placement and routing searches under
// per-call deadlines and turns their raw output into validated qmap values.
//
// A call moves READY -> RUNNING -> COMPLETED or TIMED_OUT. Placement always
// completes with a mapping or a *PlacementFailure. Routing may time out, in
// which case Route returns a nil schedule and a nil error; partial schedules
// are never returned.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simmap/simmap/qmap"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records call outcomes and durations into m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator runs placement and routing searches. It holds no per-call
// state, so concurrent calls are safe as long as the Placer and Router are.
type Orchestrator struct {
	placer  Placer
	router  Router
	cfg     Config
	metrics *Metrics
}

// New creates an Orchestrator. Panics if placer or router is nil.
func New(placer Placer, router Router, cfg Config, opts ...Option) *Orchestrator {
	if placer == nil || router == nil {
		panic("optimize.New: placer and router must be non-nil")
	}
	o := &Orchestrator{placer: placer, router: router, cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the orchestrator's configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Place searches for a mapping of circuit's qubits onto its architecture,
// starting from seed when it is non-nil. The search gets deadline to run.
//
// Invalid input is returned as a *qmap.MalformedDataError. A search error or
// a result that is not a complete injective mapping onto algorithmic sites is
// returned as a *PlacementFailure.
func (o *Orchestrator) Place(ctx context.Context, circuit qmap.Circuit, deadline time.Duration, seed *qmap.Mapping) (*qmap.Mapping, error) {
	if err := circuit.Validate(); err != nil {
		return nil, err
	}
	req := PlacementRequest{
		QubitIDs:           circuit.QubitIDs(),
		Gates:              cloneGates(circuit.Gates),
		Arch:               circuit.Arch.Clone(),
		IncludeResourceOps: o.cfg.Placement.IncludeResourceOps,
		Deadline:           deadline,
		Anneal:             ScaleAnneal(o.cfg.Placement.Anneal, circuit.Depth()),
	}
	if seed != nil {
		m, err := seed.IntKeyed()
		if err != nil {
			return nil, err
		}
		req.Seed = m
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	pairs, err := o.placer.Place(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		o.metrics.observePlacement(OutcomeFailure, elapsed)
		return nil, &PlacementFailure{Cause: err}
	}

	mapping, err := mappingFromPairs(circuit, pairs)
	if err != nil {
		o.metrics.observePlacement(OutcomeFailure, elapsed)
		return nil, &PlacementFailure{Cause: err}
	}
	o.metrics.observePlacement(OutcomeOK, elapsed)
	logrus.Debugf("placement: %d qubits placed in %v (depth %d)", len(pairs), elapsed, circuit.Depth())
	return mapping, nil
}

func mappingFromPairs(circuit qmap.Circuit, pairs []SitePair) (*qmap.Mapping, error) {
	m := make(map[string]int, len(pairs))
	for _, p := range pairs {
		k := strconv.Itoa(p.Qubit)
		if _, dup := m[k]; dup {
			return nil, fmt.Errorf("qubit %d placed twice", p.Qubit)
		}
		m[k] = p.Site
	}
	mapping, err := qmap.NewMapping(m, circuit.Arch, circuit.Gates)
	if err != nil {
		return nil, err
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	return mapping, nil
}

type routeResult struct {
	steps []RawStep
	err   error
}

// Route searches for a schedule realizing mapping within deadline.
//
// When the deadline elapses first, or is not positive, Route returns
// (nil, nil). The search runs on its own goroutine with a context that is
// cancelled when Route returns, on every path. Cancellation of the parent ctx
// is reported as an error.
func (o *Orchestrator) Route(ctx context.Context, mapping *qmap.Mapping, deadline time.Duration) (*qmap.Routing, error) {
	if mapping == nil {
		return nil, errors.New("route: nil mapping")
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	assignment, err := mapping.IntKeyed()
	if err != nil {
		return nil, err
	}
	if deadline <= 0 {
		o.metrics.observeRouting(OutcomeTimeout, 0, 0)
		logrus.Debugf("routing: %v", ErrRoutingTimeout)
		return nil, nil
	}

	req := RoutingRequest{
		Gates:               cloneGates(mapping.Gates),
		Arch:                mapping.Arch.Clone(),
		Assignment:          assignment,
		RewardStrategy:      o.cfg.Routing.RewardStrategy,
		OrderFraction:       o.cfg.Routing.OrderFraction,
		TakeFirstResourceOp: o.cfg.Routing.TakeFirstResourceOp,
		Anneal:              o.cfg.Routing.Anneal,
	}

	searchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// Buffered so the search goroutine can always deliver and exit.
	results := make(chan routeResult, 1)
	start := time.Now()
	go func() {
		steps, err := o.router.Route(searchCtx, req)
		results <- routeResult{steps: steps, err: err}
	}()

	var res routeResult
	select {
	case res = <-results:
	case <-searchCtx.Done():
		res = routeResult{err: searchCtx.Err()}
	}
	elapsed := time.Since(start)

	if res.err != nil {
		if ctx.Err() != nil {
			o.metrics.observeRouting(OutcomeError, elapsed, 0)
			return nil, fmt.Errorf("route: %w", ctx.Err())
		}
		if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, ErrRoutingTimeout) {
			o.metrics.observeRouting(OutcomeTimeout, elapsed, 0)
			logrus.Debugf("routing: %v after %v", ErrRoutingTimeout, elapsed)
			return nil, nil
		}
		o.metrics.observeRouting(OutcomeError, elapsed, 0)
		return nil, fmt.Errorf("route: %w", res.err)
	}

	steps, err := normalizeSteps(mapping, res.steps)
	if err != nil {
		o.metrics.observeRouting(OutcomeMalformed, elapsed, 0)
		return nil, err
	}
	o.metrics.observeRouting(OutcomeOK, elapsed, len(steps))
	return &qmap.Routing{Mapping: *mapping.Clone(), Steps: steps}, nil
}

// normalizeSteps canonicalizes operation kinds and checks that every operation
// touches mapped qubits and follows a path of in-bounds sites.
func normalizeSteps(mapping *qmap.Mapping, raw []RawStep) ([][]qmap.ScheduledOp, error) {
	size := mapping.Arch.Size()
	steps := make([][]qmap.ScheduledOp, 0, len(raw))
	for i, rs := range raw {
		step := make([]qmap.ScheduledOp, 0, len(rs))
		for j, op := range rs {
			field := fmt.Sprintf("steps[%d][%d]", i, j)
			kind, err := qmap.NormalizeOpKind(op.Kind, len(op.Qubits))
			if err != nil {
				return nil, &qmap.MalformedDataError{Field: field + ".op", Reason: err.Error()}
			}
			for _, q := range op.Qubits {
				if _, ok := mapping.Map[strconv.Itoa(q)]; !ok {
					return nil, &qmap.MalformedDataError{Field: field + ".qubits", Reason: fmt.Sprintf("qubit %d is not mapped", q)}
				}
			}
			if len(op.Path) == 0 {
				return nil, &qmap.MalformedDataError{Field: field + ".path", Reason: "empty path"}
			}
			for _, s := range op.Path {
				if s < 0 || s >= size {
					return nil, &qmap.MalformedDataError{Field: field + ".path", Reason: fmt.Sprintf("site %d outside the grid", s)}
				}
			}
			step = append(step, qmap.ScheduledOp{
				ID:     op.ID,
				Op:     kind,
				Qubits: append([]int(nil), op.Qubits...),
				Path:   append([]int(nil), op.Path...),
			})
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func cloneGates(gates [][]int) [][]int {
	out := make([][]int, len(gates))
	for i, g := range gates {
		out[i] = append([]int(nil), g...)
	}
	return out
}
