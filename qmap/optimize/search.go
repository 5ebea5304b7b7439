package optimize

import (
	"context"
	"time"

	"github.com/simmap/simmap/qmap"
)

// AnnealParams configures a simulated-annealing search. The temperature at
// iteration i is CoolingB * (1 - CoolingA)^i.
type AnnealParams struct {
	Iterations int     `yaml:"iterations"`
	CoolingA   float64 `yaml:"cooling_a"`
	CoolingB   float64 `yaml:"cooling_b"`
}

// ScaleAnneal derives placement parameters for a circuit of the given depth.
// Deeper circuits cool more slowly and start colder, which gives a finer
// search over the larger cost range.
func ScaleAnneal(base AnnealParams, depth int) AnnealParams {
	d := float64(max(depth, 1))
	return AnnealParams{
		Iterations: base.Iterations,
		CoolingA:   base.CoolingA / d,
		CoolingB:   10 * base.CoolingB / d,
	}
}

// PlacementRequest is the input of a placement search.
type PlacementRequest struct {
	QubitIDs []int
	Gates    [][]int
	Arch     qmap.Architecture
	// Seed is an optional starting assignment keyed by qubit id.
	Seed               map[int]int
	IncludeResourceOps bool
	Deadline           time.Duration
	Anneal             AnnealParams
}

// SitePair is one (qubit, site) assignment produced by a placement search.
type SitePair struct {
	Qubit int
	Site  int
}

// Placer searches for a good assignment of qubits to algorithmic sites.
// Implementations should return their best assignment so far when ctx is done
// rather than failing.
type Placer interface {
	Place(ctx context.Context, req PlacementRequest) ([]SitePair, error)
}

// RoutingRequest is the input of a routing search.
type RoutingRequest struct {
	Gates               [][]int
	Arch                qmap.Architecture
	Assignment          map[int]int
	RewardStrategy      string
	OrderFraction       float64
	TakeFirstResourceOp bool
	Anneal              AnnealParams
}

// RawOp is one operation as emitted by a routing search. Kind is the search's
// own name for the operation and may be empty.
type RawOp struct {
	ID     int
	Kind   string
	Qubits []int
	Path   []int
}

// RawStep holds the operations a routing search performs in one time step.
type RawStep []RawOp

// Router searches for a schedule realizing an assignment. When ctx is done
// before a schedule is found, Route must return promptly with ctx.Err() or
// ErrRoutingTimeout.
type Router interface {
	Route(ctx context.Context, req RoutingRequest) ([]RawStep, error)
}
