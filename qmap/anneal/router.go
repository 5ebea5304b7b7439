package anneal

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/optimize"
)

// Router is a greedy step-by-step path router. Each step it takes the ready
// gates (all predecessors routed) in criticality order and routes as many as
// fit on disjoint grid paths: cx gates between their operands' sites, t gates
// from the operand to a free magic state. Qubits stay on their sites; a path
// may not cross another qubit's site or another step path.
//
// The first attempt uses the exact criticality order. Each further anneal
// iteration perturbs the priorities with noise scaled by the temperature and
// keeps the shortest schedule found.
type Router struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ optimize.Router = (*Router)(nil)

// NewRouter creates a Router drawing from rng. Safe for concurrent use.
func NewRouter(rng *rand.Rand) *Router {
	return &Router{rng: rng}
}

type routingProblem struct {
	req         optimize.RoutingRequest
	preds       [][]int
	criticality []int
	occupied    map[int]bool
}

// Route returns ctx.Err() as soon as ctx is done; no partial schedule is
// returned.
func (r *Router) Route(ctx context.Context, req optimize.RoutingRequest) ([]optimize.RawStep, error) {
	if req.RewardStrategy != optimize.RewardCriticality {
		return nil, fmt.Errorf("unsupported reward strategy %q", req.RewardStrategy)
	}
	prob, err := newRoutingProblem(req)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var best []optimize.RawStep
	temp := req.Anneal.CoolingB
	attempts := max(req.Anneal.Iterations, 1)
	for i := 0; i < attempts; i++ {
		noise := 0.0
		if i > 0 {
			noise = temp
			temp *= 1 - req.Anneal.CoolingA
		}
		steps, err := prob.schedule(ctx, r.rng, noise)
		if err != nil {
			return nil, err
		}
		if best == nil || len(steps) < len(best) {
			best = steps
		}
	}
	logrus.Debugf("anneal router: %d gates in %d steps", len(req.Gates), len(best))
	return best, nil
}

func newRoutingProblem(req optimize.RoutingRequest) (*routingProblem, error) {
	p := &routingProblem{
		req:         req,
		preds:       make([][]int, len(req.Gates)),
		criticality: make([]int, len(req.Gates)),
		occupied:    make(map[int]bool, len(req.Assignment)),
	}
	for _, s := range req.Assignment {
		p.occupied[s] = true
	}

	succs := make([][]int, len(req.Gates))
	last := make(map[int]int)
	for i, g := range req.Gates {
		for _, q := range g {
			if _, ok := req.Assignment[q]; !ok {
				return nil, fmt.Errorf("gate %d: qubit %d has no site", i, q)
			}
			if j, ok := last[q]; ok && (len(p.preds[i]) == 0 || p.preds[i][len(p.preds[i])-1] != j) {
				p.preds[i] = append(p.preds[i], j)
				succs[j] = append(succs[j], i)
			}
			last[q] = i
		}
	}
	// Criticality: length of the longest dependency chain starting at the gate.
	for i := len(req.Gates) - 1; i >= 0; i-- {
		c := 0
		for _, s := range succs[i] {
			c = max(c, p.criticality[s])
		}
		p.criticality[i] = c + 1
	}
	return p, nil
}

func (p *routingProblem) schedule(ctx context.Context, rng *rand.Rand, noise float64) ([]optimize.RawStep, error) {
	n := len(p.req.Gates)
	done := make([]bool, n)
	priority := make([]float64, n)
	for i, c := range p.criticality {
		priority[i] = float64(c)
		if noise > 0 {
			priority[i] += noise * rng.NormFloat64() * float64(c)
		}
	}

	var steps []optimize.RawStep
	remaining := n
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ready := p.ready(done)
		sort.SliceStable(ready, func(a, b int) bool {
			ga, gb := ready[a], ready[b]
			if p.req.TakeFirstResourceOp {
				ra := len(p.req.Gates[ga]) == qmap.ResourceGateArity
				rb := len(p.req.Gates[gb]) == qmap.ResourceGateArity
				if ra != rb {
					return ra
				}
			}
			return priority[ga] > priority[gb]
		})
		take := int(math.Ceil(p.req.OrderFraction * float64(len(ready))))
		take = max(1, min(take, len(ready)))

		used := make(map[int]bool)
		var step optimize.RawStep
		for _, g := range ready[:take] {
			path := p.path(g, used)
			if path == nil {
				continue
			}
			for _, s := range path {
				used[s] = true
			}
			step = append(step, optimize.RawOp{ID: g, Kind: p.kind(g), Qubits: append([]int(nil), p.req.Gates[g]...), Path: path})
		}
		if len(step) == 0 {
			return nil, fmt.Errorf("no ready gate has a free path (first ready gate %d)", ready[0])
		}
		for _, op := range step {
			done[op.ID] = true
		}
		remaining -= len(step)
		steps = append(steps, step)
	}
	return steps, nil
}

func (p *routingProblem) ready(done []bool) []int {
	var ready []int
	for i := range p.req.Gates {
		if done[i] {
			continue
		}
		ok := true
		for _, j := range p.preds[i] {
			if !done[j] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, i)
		}
	}
	return ready
}

func (p *routingProblem) kind(g int) string {
	if len(p.req.Gates[g]) == qmap.ResourceGateArity {
		return string(qmap.OpT)
	}
	return string(qmap.OpCX)
}

// path finds a route for gate g that avoids the sites in used.
func (p *routingProblem) path(g int, used map[int]bool) []int {
	arch := p.req.Arch
	gate := p.req.Gates[g]
	start := p.req.Assignment[gate[0]]
	if used[start] {
		return nil
	}
	passable := func(s int) bool {
		return !used[s] && !p.occupied[s] && !arch.IsMagicState(s)
	}
	if len(gate) == qmap.ResourceGateArity {
		return shortestPath(arch, start, passable, func(s int) bool {
			return arch.IsMagicState(s) && !used[s]
		})
	}
	end := p.req.Assignment[gate[1]]
	if used[end] {
		return nil
	}
	return shortestPath(arch, start, passable, func(s int) bool { return s == end })
}
