package qmap

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Gate kinds by arity. A single-qubit gate consumes a magic state (t/tdg); a
// two-qubit gate entangles its operands (cx).
const (
	ResourceGateArity   = 1
	EntanglingGateArity = 2
)

// Circuit is an ordered sequence of gates over logical qubits, bound to the
// architecture it will be mapped onto. Downstream code must never mutate it.
type Circuit struct {
	Arch  Architecture `json:"arch"`
	Gates [][]int      `json:"gates"`
}

// NewCircuit validates the gates against the gate-arity rules and returns a
// Circuit holding copies of arch and gates.
func NewCircuit(arch Architecture, gates [][]int) (Circuit, error) {
	c := Circuit{Arch: arch.Clone(), Gates: cloneGates(gates)}
	if err := c.Validate(); err != nil {
		return Circuit{}, err
	}
	return c, nil
}

// Validate checks the architecture and every gate.
func (c Circuit) Validate() error {
	if err := c.Arch.Validate(); err != nil {
		return err
	}
	return validateGates(c.Gates)
}

func validateGates(gates [][]int) error {
	for i, g := range gates {
		field := fmt.Sprintf("gates[%d]", i)
		if len(g) < ResourceGateArity || len(g) > EntanglingGateArity {
			return malformed(field, "gate must reference 1 or 2 qubits, got %d", len(g))
		}
		for j, q := range g {
			if q < 0 {
				return malformed(fmt.Sprintf("%s[%d]", field, j), "qubit id must be non-negative, got %d", q)
			}
		}
		if len(g) == EntanglingGateArity && g[0] == g[1] {
			return malformed(field, "two-qubit gate repeats qubit %d", g[0])
		}
	}
	return nil
}

// Qubits returns the logical qubit keys in order of first appearance in Gates.
// This order is part of the transfer heuristic's contract.
func (c Circuit) Qubits() []string {
	seen := make(map[int]bool)
	var keys []string
	for _, g := range c.Gates {
		for _, q := range g {
			if !seen[q] {
				seen[q] = true
				keys = append(keys, strconv.Itoa(q))
			}
		}
	}
	return keys
}

// QubitIDs returns the distinct qubit ids in ascending order.
func (c Circuit) QubitIDs() []int {
	return qubitIDs(c.Gates)
}

func qubitIDs(gates [][]int) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, g := range gates {
		for _, q := range g {
			if !seen[q] {
				seen[q] = true
				ids = append(ids, q)
			}
		}
	}
	slices.Sort(ids)
	return ids
}

// Depth returns the critical-path length of the circuit counting entangling
// and resource gates: each gate sits one layer above the latest gate that
// touches any of its qubits.
func (c Circuit) Depth() int {
	return gateDepth(c.Gates)
}

func gateDepth(gates [][]int) int {
	level := make(map[int]int)
	depth := 0
	for _, g := range gates {
		if len(g) != ResourceGateArity && len(g) != EntanglingGateArity {
			continue
		}
		l := 0
		for _, q := range g {
			l = max(l, level[q])
		}
		l++
		for _, q := range g {
			level[q] = l
		}
		depth = max(depth, l)
	}
	return depth
}

// Fingerprint hashes the canonical JSON encoding of the circuit. Two circuits
// with equal architecture and gate sequence share a fingerprint.
func (c Circuit) Fingerprint() uint64 {
	data, err := json.Marshal(c)
	if err != nil {
		// Circuit holds only ints and slices of ints.
		panic(fmt.Sprintf("marshal circuit: %v", err))
	}
	return xxh3.Hash(data)
}

func cloneGates(gates [][]int) [][]int {
	out := make([][]int, len(gates))
	for i, g := range gates {
		out[i] = slices.Clone(g)
	}
	return out
}
