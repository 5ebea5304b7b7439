// Package embedding derives the text a circuit is embedded from and ingests
// solver output files into the donor store.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/simmap/simmap/qmap"
)

// Embedder turns an embedding text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Text returns the canonical embedding input of a circuit: its architecture
// and gates as compact JSON. Donors and queries are embedded from the same
// text so that equal circuits get equal vectors.
func Text(c qmap.Circuit) (string, error) {
	b, err := json.Marshal(struct {
		Arch  qmap.Architecture `json:"arch"`
		Gates [][]int           `json:"gates"`
	}{c.Arch, c.Gates})
	if err != nil {
		return "", fmt.Errorf("encoding embedding text: %w", err)
	}
	return string(b), nil
}

// timedOut is the value solvers write in place of steps when routing ran
// out of time.
const timedOut = "timeout"

// ParseSolverOutput reads one solver output document ({map, arch, gates,
// steps}) and returns its mapping. skip is true for empty documents and for
// runs whose steps are "timeout"; such files carry no usable donor. The
// returned mapping is complete.
func ParseSolverOutput(data []byte) (m *qmap.Mapping, skip bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, true, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, &qmap.MalformedDataError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if steps, ok := fields["steps"]; ok {
		var s string
		if json.Unmarshal(steps, &s) == nil && s == timedOut {
			return nil, true, nil
		}
		delete(fields, "steps")
	}
	stripped, err := json.Marshal(fields)
	if err != nil {
		return nil, false, fmt.Errorf("re-encoding solver output: %w", err)
	}
	m, err = qmap.ParseMapping(stripped)
	if err != nil {
		return nil, false, err
	}
	if err := m.Validate(); err != nil {
		return nil, false, err
	}
	return m, false, nil
}
