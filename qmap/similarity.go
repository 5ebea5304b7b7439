package qmap

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/simmap/simmap/qmap/trace"
)

// transferDistance is the squared Euclidean distance between donorSite,
// placed on the donor grid, and candidate, placed on the target grid.
// Coordinates are not rescaled between grids of different size: the result is
// a best-effort proximity score, not a geometric transform.
func transferDistance(donorArch, targetArch Architecture, donorSite, candidate int) int {
	dx, dy := donorArch.Coord(donorSite)
	cx, cy := targetArch.Coord(candidate)
	return (dx-cx)*(dx-cx) + (dy-cy)*(dy-cy)
}

// ClosestAvailableSite returns the candidate nearest to donorSite under the
// transfer distance, together with a new slice holding the other candidates in
// their original order. Ties go to the earliest candidate. candidates is not
// modified. Panics if candidates is empty.
func ClosestAvailableSite(donorArch, targetArch Architecture, donorSite int, candidates []int) (int, []int) {
	if len(candidates) == 0 {
		panic("ClosestAvailableSite: no candidate sites")
	}
	best := 0
	bestDist := transferDistance(donorArch, targetArch, donorSite, candidates[0])
	for i := 1; i < len(candidates); i++ {
		if d := transferDistance(donorArch, targetArch, donorSite, candidates[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	rest := make([]int, 0, len(candidates)-1)
	rest = append(rest, candidates[:best]...)
	rest = append(rest, candidates[best+1:]...)
	return candidates[best], rest
}

// SimilarityMapper adapts a donor Mapping, computed for a similar circuit and
// possibly a different architecture, into a Mapping for a target circuit.
//
// Iteration order is part of the contract: target qubits are visited in
// first-appearance order (Circuit.Qubits), donor qubits in natural key order
// (Mapping.Keys), and pairing consumes both lists from the front.
type SimilarityMapper struct {
	circuit Circuit
	donor   *Mapping
	rng     *rand.Rand
	trace   *trace.TransferTrace
}

// NewSimilarityMapper validates its inputs. rng drives the random fallback and
// should come from PartitionedRNG.ForSubsystem(SubsystemTransfer).
func NewSimilarityMapper(circuit Circuit, donor *Mapping, rng *rand.Rand) (*SimilarityMapper, error) {
	if donor == nil {
		return nil, errors.New("nil donor mapping")
	}
	if rng == nil {
		return nil, errors.New("nil rng")
	}
	if err := circuit.Validate(); err != nil {
		return nil, fmt.Errorf("target circuit: %w", err)
	}
	if err := donor.Arch.Validate(); err != nil {
		return nil, fmt.Errorf("donor mapping: %w", err)
	}
	if err := donor.checkSites(); err != nil {
		return nil, fmt.Errorf("donor mapping: %w", err)
	}
	if n, sites := len(circuit.Qubits()), len(circuit.Arch.AlgQubits); n > sites {
		return nil, malformed("arch.alg_qubits", "%d sites cannot hold %d qubits", sites, n)
	}
	return &SimilarityMapper{circuit: circuit, donor: donor, rng: rng}, nil
}

// WithTrace makes the mapper record every assignment decision into t.
func (s *SimilarityMapper) WithTrace(t *trace.TransferTrace) *SimilarityMapper {
	s.trace = t
	return s
}

// ExactTransfer maps the donor one-to-one onto the target. It reports false
// when the donor's qubit keys differ from the target's qubit set, signalling
// the caller to fall back to BestEffortTransfer.
func (s *SimilarityMapper) ExactTransfer() (*Mapping, bool) {
	qubits := s.circuit.Qubits()
	if len(qubits) != len(s.donor.Map) {
		return nil, false
	}
	for _, q := range qubits {
		if _, ok := s.donor.Map[q]; !ok {
			return nil, false
		}
	}
	t := s.newTransfer()
	for _, q := range qubits {
		t.nearest(q, q, trace.ReasonExact)
	}
	return t.result(), true
}

// BestEffortTransfer always returns a complete, injective Mapping for the
// target circuit.
//
//  1. If ExactTransfer succeeds, its result is returned.
//  2. Qubits present in both donor and target take their nearest site first.
//  3. Remaining target qubits are paired with remaining donor qubits and take
//     the site nearest to the paired donor site.
//  4. If the target has more qubits than the donor, qubits left after pairing
//     get a uniformly random remaining site; if it has fewer, leftover donor
//     qubits are dropped.
func (s *SimilarityMapper) BestEffortTransfer() *Mapping {
	if m, ok := s.ExactTransfer(); ok {
		return m
	}

	qubits := s.circuit.Qubits()
	inTarget := make(map[string]bool, len(qubits))
	for _, q := range qubits {
		inTarget[q] = true
	}

	t := s.newTransfer()
	donorKeys := s.donor.Keys()
	var donorOnly []string
	for _, k := range donorKeys {
		if inTarget[k] {
			t.nearest(k, k, trace.ReasonShared)
		} else {
			donorOnly = append(donorOnly, k)
		}
	}
	var targetOnly []string
	for _, q := range qubits {
		if _, done := t.assigned[q]; !done {
			targetOnly = append(targetOnly, q)
		}
	}

	// Pair front to front while both sides have qubits left.
	for len(targetOnly) > 0 && len(donorOnly) > 0 {
		t.nearest(targetOnly[0], donorOnly[0], trace.ReasonPaired)
		targetOnly, donorOnly = targetOnly[1:], donorOnly[1:]
	}

	switch delta := len(qubits) - len(donorKeys); {
	case delta > 0:
		for _, q := range targetOnly {
			t.random(q)
		}
	case delta < 0:
		if s.trace != nil {
			for _, k := range donorOnly {
				s.trace.RecordDropped(k)
			}
		}
	}
	return t.result()
}

// transfer holds the state of one mapping construction. assigned is injective
// at every point because each site is removed from remaining when taken.
type transfer struct {
	s         *SimilarityMapper
	remaining []int
	assigned  map[string]int
}

func (s *SimilarityMapper) newTransfer() *transfer {
	return &transfer{
		s:         s,
		remaining: slices.Clone(s.circuit.Arch.AlgQubits),
		assigned:  make(map[string]int),
	}
}

func (t *transfer) nearest(qubit, donorQubit string, reason trace.Reason) {
	donorSite := t.s.donor.Map[donorQubit]
	site, rest := ClosestAvailableSite(t.s.donor.Arch, t.s.circuit.Arch, donorSite, t.remaining)
	t.remaining = rest
	t.assigned[qubit] = site
	if t.s.trace != nil {
		t.s.trace.Record(trace.TransferRecord{
			Qubit:      qubit,
			DonorQubit: donorQubit,
			DonorSite:  donorSite,
			Site:       site,
			Distance:   transferDistance(t.s.donor.Arch, t.s.circuit.Arch, donorSite, site),
			Reason:     reason,
		})
	}
}

func (t *transfer) random(qubit string) {
	i := t.s.rng.Intn(len(t.remaining))
	site := t.remaining[i]
	t.remaining = slices.Delete(t.remaining, i, i+1)
	t.assigned[qubit] = site
	if t.s.trace != nil {
		t.s.trace.Record(trace.TransferRecord{Qubit: qubit, DonorSite: -1, Site: site, Reason: trace.ReasonRandom})
	}
}

func (t *transfer) result() *Mapping {
	return &Mapping{
		Map:   t.assigned,
		Arch:  t.s.circuit.Arch.Clone(),
		Gates: cloneGates(t.s.circuit.Gates),
	}
}
