package qasm

import (
	"fmt"
	"math/rand"
)

var generatedGates = []string{"t", "tdg", "cx"}

// Generate returns a random program of length gates drawn uniformly from t,
// tdg and cx over a register of the given size. cx operands are distinct.
func Generate(rng *rand.Rand, qubits, length int) (*Program, error) {
	if qubits < 2 {
		return nil, fmt.Errorf("need at least 2 qubits, got %d", qubits)
	}
	if length < 0 {
		return nil, fmt.Errorf("length must be >= 0, got %d", length)
	}
	p := &Program{Register: "q", Size: qubits, Ops: make([]Op, 0, length)}
	for i := 0; i < length; i++ {
		name := generatedGates[rng.Intn(len(generatedGates))]
		if name == "cx" {
			a := rng.Intn(qubits)
			b := rng.Intn(qubits - 1)
			if b >= a {
				b++
			}
			p.Ops = append(p.Ops, Op{Name: name, Qubits: []int{a, b}})
			continue
		}
		p.Ops = append(p.Ops, Op{Name: name, Qubits: []int{rng.Intn(qubits)}})
	}
	return p, nil
}
