package qmap

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Mapping assigns logical qubits (string keys) to physical sites of Arch for
// the gate sequence Gates.
type Mapping struct {
	Map   map[string]int `json:"map"`
	Arch  Architecture   `json:"arch"`
	Gates [][]int        `json:"gates"`
}

// NewMapping returns a Mapping holding copies of its arguments. It checks that
// every site is an algorithmic site and that no site is used twice; it does
// not require the map to cover every qubit of gates (see Validate).
func NewMapping(m map[string]int, arch Architecture, gates [][]int) (*Mapping, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	if err := validateGates(gates); err != nil {
		return nil, err
	}
	mp := &Mapping{Map: maps.Clone(m), Arch: arch.Clone(), Gates: cloneGates(gates)}
	if mp.Map == nil {
		mp.Map = map[string]int{}
	}
	if err := mp.checkSites(); err != nil {
		return nil, err
	}
	return mp, nil
}

func (m *Mapping) checkSites() error {
	used := make(map[int]string, len(m.Map))
	for _, k := range m.Keys() {
		s := m.Map[k]
		field := fmt.Sprintf("map[%q]", k)
		if n, err := strconv.Atoi(k); err == nil && strconv.Itoa(n) != k {
			return malformed(field, "qubit key is not in canonical form %q", strconv.Itoa(n))
		}
		if !m.Arch.IsAlgSite(s) {
			return malformed(field, "site %d is not an algorithmic site", s)
		}
		if prev, dup := used[s]; dup {
			return malformed(field, "site %d already assigned to qubit %q", s, prev)
		}
		used[s] = k
	}
	return nil
}

// Validate checks that the mapping is complete for its own gates: the key set
// equals the gates' qubit set, every site is algorithmic and no site repeats.
func (m *Mapping) Validate() error {
	if err := m.checkSites(); err != nil {
		return err
	}
	want := make(map[string]bool)
	for _, q := range qubitIDs(m.Gates) {
		k := strconv.Itoa(q)
		want[k] = true
		if _, ok := m.Map[k]; !ok {
			return malformed("map", "qubit %q has no site", k)
		}
	}
	for _, k := range m.Keys() {
		if !want[k] {
			return malformed("map", "qubit %q does not appear in gates", k)
		}
	}
	return nil
}

// Keys returns the mapped qubit keys in natural order: ascending numerically
// when every key is an integer, lexicographically otherwise. Keys of equal
// numeric value are ordered lexicographically.
func (m *Mapping) Keys() []string {
	keys := slices.Collect(maps.Keys(m.Map))
	numeric := make(map[string]int, len(keys))
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil {
			slices.Sort(keys)
			return keys
		}
		numeric[k] = n
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(numeric[a], numeric[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

// IntKeyed returns the map keyed by integer qubit id, as expected by the
// placement and routing searches. Keys must be canonical integers.
func (m *Mapping) IntKeyed() (map[int]int, error) {
	out := make(map[int]int, len(m.Map))
	for _, k := range m.Keys() {
		field := fmt.Sprintf("map[%q]", k)
		q, err := strconv.Atoi(k)
		if err != nil {
			return nil, malformed(field, "qubit key is not an integer")
		}
		if strconv.Itoa(q) != k {
			return nil, malformed(field, "qubit key is not in canonical form %q", strconv.Itoa(q))
		}
		out[q] = m.Map[k]
	}
	return out, nil
}

// Circuit returns the circuit this mapping applies to.
func (m *Mapping) Circuit() Circuit {
	return Circuit{Arch: m.Arch.Clone(), Gates: cloneGates(m.Gates)}
}

// Clone returns a deep copy.
func (m *Mapping) Clone() *Mapping {
	return &Mapping{Map: maps.Clone(m.Map), Arch: m.Arch.Clone(), Gates: cloneGates(m.Gates)}
}

// OpKind is the canonical kind of a scheduled operation.
type OpKind string

const (
	// OpT is a single-qubit resource operation routed to a magic state.
	OpT OpKind = "t"
	// OpCX is a two-qubit entangling operation.
	OpCX OpKind = "cx"
)

// rawOpKinds maps the kind names a routing search may emit to their canonical kind.
var rawOpKinds = map[string]OpKind{
	"t":    OpT,
	"tdg":  OpT,
	"cx":   OpCX,
	"cnot": OpCX,
}

// NormalizeOpKind canonicalizes a raw operation kind. An empty kind is
// inferred from the number of qubits the operation touches.
func NormalizeOpKind(raw string, numQubits int) (OpKind, error) {
	if raw == "" {
		switch numQubits {
		case ResourceGateArity:
			return OpT, nil
		case EntanglingGateArity:
			return OpCX, nil
		default:
			return "", fmt.Errorf("cannot infer operation kind for %d qubits", numQubits)
		}
	}
	k, ok := rawOpKinds[raw]
	if !ok {
		return "", fmt.Errorf("unknown operation kind %q", raw)
	}
	return k, nil
}

// ScheduledOp is one operation realized on the grid during a step.
type ScheduledOp struct {
	ID     int    `json:"id"`
	Op     OpKind `json:"op"`
	Qubits []int  `json:"qubits"`
	Path   []int  `json:"path"`
}

// Routing is a Mapping plus the time-ordered steps that realize its gates.
type Routing struct {
	Mapping
	Steps [][]ScheduledOp `json:"steps"`
}

// NumSteps returns the schedule length.
func (r *Routing) NumSteps() int {
	return len(r.Steps)
}
