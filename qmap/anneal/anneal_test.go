package anneal

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/internal/testutil"
	"github.com/simmap/simmap/qmap/optimize"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func routingRequest(m *qmap.Mapping) optimize.RoutingRequest {
	cfg := optimize.DefaultConfig().Routing
	a, _ := m.IntKeyed()
	return optimize.RoutingRequest{
		Gates:               m.Gates,
		Arch:                m.Arch,
		Assignment:          a,
		RewardStrategy:      cfg.RewardStrategy,
		OrderFraction:       cfg.OrderFraction,
		TakeFirstResourceOp: cfg.TakeFirstResourceOp,
		Anneal:              cfg.Anneal,
	}
}

func TestPlacer_CompleteInjectiveAssignment(t *testing.T) {
	arch := testutil.S9(t)
	req := optimize.PlacementRequest{
		QubitIDs:           []int{0, 1, 2, 3, 4},
		Gates:              [][]int{{0, 1}, {1, 2}, {3}, {3, 4}, {0, 4}},
		Arch:               arch,
		IncludeResourceOps: true,
		Anneal:             optimize.AnnealParams{Iterations: 200, CoolingA: 0.05, CoolingB: 1},
	}

	pairs, err := NewPlacer(newRNG()).Place(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, pairs, 5)
	seen := make(map[int]bool)
	for i, p := range pairs {
		assert.Equal(t, i, p.Qubit, "pairs sorted by qubit")
		assert.True(t, arch.IsAlgSite(p.Site))
		assert.False(t, seen[p.Site], "site %d reused", p.Site)
		seen[p.Site] = true
	}
}

func TestPlacer_NeverWorseThanStart(t *testing.T) {
	// GIVEN a seed that puts interacting qubits at opposite corners
	arch := testutil.S9(t)
	gates := [][]int{{0, 1}, {0, 1}, {0, 1}}
	seed := map[int]int{0: 20, 1: 60}
	req := optimize.PlacementRequest{
		QubitIDs: []int{0, 1},
		Gates:    gates,
		Arch:     arch,
		Seed:     seed,
		Anneal:   optimize.AnnealParams{Iterations: 300, CoolingA: 0.05, CoolingB: 1},
	}

	// WHEN annealed
	pairs, err := NewPlacer(newRNG()).Place(context.Background(), req)

	// THEN the best placement costs no more than the seed's
	require.NoError(t, err)
	got := manhattan(arch, pairs[0].Site, pairs[1].Site)
	assert.LessOrEqual(t, got, manhattan(arch, 20, 60))
}

func TestPlacer_ZeroIterations_KeepsSeed(t *testing.T) {
	req := optimize.PlacementRequest{
		QubitIDs: []int{0, 1, 2},
		Gates:    [][]int{{0, 1}, {2}},
		Arch:     testutil.C4(t),
		Seed:     map[int]int{0: 18, 2: 6},
	}

	pairs, err := NewPlacer(newRNG()).Place(context.Background(), req)

	require.NoError(t, err)
	// Qubit 1 takes the first site the seed left free.
	assert.Equal(t, []optimize.SitePair{{Qubit: 0, Site: 18}, {Qubit: 1, Site: 16}, {Qubit: 2, Site: 6}}, pairs)
}

func TestPlacer_CancelledContext_ReturnsStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := optimize.PlacementRequest{
		QubitIDs: []int{0, 1},
		Gates:    [][]int{{0, 1}},
		Arch:     testutil.C4(t),
		Anneal:   optimize.AnnealParams{Iterations: 1000, CoolingA: 0.1, CoolingB: 1},
	}

	pairs, err := NewPlacer(newRNG()).Place(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, []optimize.SitePair{{Qubit: 0, Site: 6}, {Qubit: 1, Site: 16}}, pairs)
}

func TestPlacer_TooManyQubits(t *testing.T) {
	req := optimize.PlacementRequest{QubitIDs: []int{0, 1, 2, 3, 4}, Arch: testutil.C4(t)}
	_, err := NewPlacer(newRNG()).Place(context.Background(), req)
	assert.Error(t, err)
}

func TestRouter_ParallelGatesShareAStep(t *testing.T) {
	// GIVEN the four-qubit donor with two independent cx gates
	req := routingRequest(testutil.C4Donor(t))

	// WHEN routed
	steps, err := NewRouter(newRNG()).Route(context.Background(), req)

	// THEN both gates run in one step along the bus between their sites
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Len(t, steps[0], 2)
	assert.Equal(t, []int{6, 11, 16}, steps[0][0].Path)
	assert.Equal(t, []int{8, 13, 18}, steps[0][1].Path)
	assert.Equal(t, "cx", steps[0][0].Kind)
}

func TestRouter_DependentGatesSerialize(t *testing.T) {
	m := testutil.Mapping(t, map[string]int{"0": 6, "1": 16, "2": 8}, testutil.C4(t), [][]int{{0, 1}, {1, 2}, {2}})

	steps, err := NewRouter(newRNG()).Route(context.Background(), routingRequest(m))

	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, 0, steps[0][0].ID)
	assert.Equal(t, 1, steps[1][0].ID)
	assert.Equal(t, 2, steps[2][0].ID)
}

func TestRouter_ResourceGateEndsOnMagicState(t *testing.T) {
	m := testutil.Mapping(t, map[string]int{"0": 6}, testutil.C4(t), [][]int{{0}})

	steps, err := NewRouter(newRNG()).Route(context.Background(), routingRequest(m))

	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "t", steps[0][0].Kind)
	assert.Equal(t, []int{6, 1}, steps[0][0].Path)
}

func TestRouter_EveryGateRoutedOnce(t *testing.T) {
	arch := testutil.S9(t)
	gates := [][]int{{0, 1}, {2}, {3, 4}, {1, 2}, {5, 6}, {0}, {7, 8}, {4, 5}, {8}}
	m := testutil.Mapping(t, map[string]int{"0": 20, "1": 22, "2": 24, "3": 38, "4": 40, "5": 42, "6": 56, "7": 58, "8": 60}, arch, gates)

	steps, err := NewRouter(newRNG()).Route(context.Background(), routingRequest(m))

	require.NoError(t, err)
	seen := make(map[int]int)
	for _, step := range steps {
		used := make(map[int]bool)
		for _, op := range step {
			seen[op.ID]++
			for _, s := range op.Path {
				assert.False(t, used[s], "site %d used twice in one step", s)
				used[s] = true
			}
		}
	}
	assert.Len(t, seen, len(gates))
	for id, n := range seen {
		assert.Equal(t, 1, n, "gate %d", id)
	}
}

func TestRouter_CancelledContext_ReturnsError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	steps, err := NewRouter(newRNG()).Route(ctx, routingRequest(testutil.C4Donor(t)))

	assert.Nil(t, steps)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRouter_BlockedGate_ReportsNoFreePath(t *testing.T) {
	// GIVEN a one-row grid where qubit 1 sits between the operands of the only gate
	arch, err := qmap.NewArchitecture(1, 3, []int{0, 1, 2}, nil)
	require.NoError(t, err)
	m := testutil.Mapping(t, map[string]int{"0": 0, "1": 1, "2": 2}, arch, [][]int{{0, 2}})

	// WHEN routed
	steps, err := NewRouter(newRNG()).Route(context.Background(), routingRequest(m))

	// THEN the error names the blocked path rather than an empty grid
	assert.Nil(t, steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ready gate has a free path")
}

func TestRouter_UnsupportedReward(t *testing.T) {
	req := routingRequest(testutil.C4Donor(t))
	req.RewardStrategy = "random"
	_, err := NewRouter(newRNG()).Route(context.Background(), req)
	assert.Error(t, err)
}

func TestOrchestrator_WithAnnealSearches(t *testing.T) {
	// GIVEN an orchestrator backed by the reference searches
	o := optimize.New(NewPlacer(newRNG()), NewRouter(newRNG()), optimize.DefaultConfig())
	circuit := testutil.Circuit(t, testutil.S9(t), [][]int{{0, 1}, {2}, {1, 2}, {3, 0}})

	// WHEN placed then routed
	m, err := o.Place(context.Background(), circuit, time.Second, nil)
	require.NoError(t, err)
	r, err := o.Route(context.Background(), m, 5*time.Second)

	// THEN the schedule covers every gate
	require.NoError(t, err)
	require.NotNil(t, r)
	ops := 0
	for _, step := range r.Steps {
		ops += len(step)
	}
	assert.Equal(t, len(circuit.Gates), ops)
}
