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

// Placer is a simulated-annealing placement search. Cost is the sum of
// Manhattan distances between the operands of every two-qubit gate, plus, when
// resource operations are included, the distance from each single-qubit gate's
// operand to its nearest magic state.
type Placer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ optimize.Placer = (*Placer)(nil)

// NewPlacer creates a Placer drawing from rng. Safe for concurrent use.
func NewPlacer(rng *rand.Rand) *Placer {
	return &Placer{rng: rng}
}

type placement struct {
	arch      qmap.Architecture
	gates     [][]int
	resources bool
	magicDist map[int]int // alg site -> distance to nearest magic state
	site      map[int]int // qubit -> site
	owner     map[int]int // site -> qubit
}

// Place returns its best assignment when ctx is done; it never fails for
// lack of time.
func (p *Placer) Place(ctx context.Context, req optimize.PlacementRequest) ([]optimize.SitePair, error) {
	if len(req.QubitIDs) > len(req.Arch.AlgQubits) {
		return nil, fmt.Errorf("%d qubits do not fit on %d algorithmic sites", len(req.QubitIDs), len(req.Arch.AlgQubits))
	}
	pl := newPlacement(req)
	if len(req.QubitIDs) == 0 {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cost := pl.cost()
	best, bestCost := pl.snapshot(), cost
	temp := req.Anneal.CoolingB
	iter := 0
	for ; iter < req.Anneal.Iterations; iter++ {
		if ctx.Err() != nil {
			break
		}
		q := req.QubitIDs[p.rng.Intn(len(req.QubitIDs))]
		target := req.Arch.AlgQubits[p.rng.Intn(len(req.Arch.AlgQubits))]
		from := pl.site[q]
		if target == from {
			continue
		}
		pl.move(q, target)
		next := pl.cost()
		delta := float64(next - cost)
		if delta <= 0 || (temp > 0 && p.rng.Float64() < math.Exp(-delta/temp)) {
			cost = next
			if cost < bestCost {
				best, bestCost = pl.snapshot(), cost
			}
		} else {
			pl.move(q, from)
		}
		temp *= 1 - req.Anneal.CoolingA
	}
	logrus.Debugf("anneal placer: cost %d after %d iterations", bestCost, iter)

	pairs := make([]optimize.SitePair, 0, len(best))
	for q, s := range best {
		pairs = append(pairs, optimize.SitePair{Qubit: q, Site: s})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Qubit < pairs[j].Qubit })
	return pairs, nil
}

// newPlacement starts from the seed where it is usable and fills the
// remaining qubits onto free sites in order.
func newPlacement(req optimize.PlacementRequest) *placement {
	pl := &placement{
		arch:      req.Arch,
		gates:     req.Gates,
		resources: req.IncludeResourceOps,
		magicDist: make(map[int]int, len(req.Arch.AlgQubits)),
		site:      make(map[int]int, len(req.QubitIDs)),
		owner:     make(map[int]int, len(req.QubitIDs)),
	}
	for _, s := range req.Arch.AlgQubits {
		d := math.MaxInt32
		for _, m := range req.Arch.MagicStates {
			d = min(d, manhattan(req.Arch, s, m))
		}
		pl.magicDist[s] = d
	}
	for _, q := range req.QubitIDs {
		s, ok := req.Seed[q]
		if !ok || !req.Arch.IsAlgSite(s) {
			continue
		}
		if _, taken := pl.owner[s]; taken {
			continue
		}
		pl.site[q], pl.owner[s] = s, q
	}
	free := 0
	for _, q := range req.QubitIDs {
		if _, ok := pl.site[q]; ok {
			continue
		}
		for {
			s := req.Arch.AlgQubits[free]
			free++
			if _, taken := pl.owner[s]; !taken {
				pl.site[q], pl.owner[s] = s, q
				break
			}
		}
	}
	return pl
}

// move puts q on site s, swapping with the qubit already there if any.
func (pl *placement) move(q, s int) {
	from := pl.site[q]
	if other, ok := pl.owner[s]; ok {
		pl.site[other], pl.owner[from] = from, other
	} else {
		delete(pl.owner, from)
	}
	pl.site[q], pl.owner[s] = s, q
}

func (pl *placement) cost() int {
	c := 0
	for _, g := range pl.gates {
		switch len(g) {
		case qmap.EntanglingGateArity:
			c += manhattan(pl.arch, pl.site[g[0]], pl.site[g[1]])
		case qmap.ResourceGateArity:
			if pl.resources && len(pl.arch.MagicStates) > 0 {
				c += pl.magicDist[pl.site[g[0]]]
			}
		}
	}
	return c
}

func (pl *placement) snapshot() map[int]int {
	out := make(map[int]int, len(pl.site))
	for q, s := range pl.site {
		out[q] = s
	}
	return out
}
