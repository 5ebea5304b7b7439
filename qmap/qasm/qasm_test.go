package qasm

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmap/simmap/qmap"
)

const sample = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[5];
// entangle
cx q[0],q[1];
t q[1]; tdg q[3];
cx q[3], q[0]; // trailing comment
`

func TestParse_Sample(t *testing.T) {
	p, err := Parse(strings.NewReader(sample))

	require.NoError(t, err)
	assert.Equal(t, "q", p.Register)
	assert.Equal(t, 5, p.Size)
	assert.Equal(t, [][]int{{0, 1}, {1}, {3}, {3, 0}}, p.Gates())
	assert.Equal(t, 3, p.UsedQubits())
	assert.Equal(t, "tdg", p.Ops[2].Name)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"unsupported gate", "qreg q[2];\nh q[0];", "line 2"},
		{"gate before qreg", "t q[0];", "line 1"},
		{"out of range", "qreg q[2];\ncx q[0],q[2];", "line 2"},
		{"repeated cx operand", "qreg q[2];\ncx q[1],q[1];", "line 2"},
		{"wrong arity", "qreg q[3];\n\nt q[0],q[1];", "line 3"},
		{"unknown register", "qreg q[2];\nt r[0];", "line 2"},
		{"second register", "qreg q[2];\nqreg r[2];", "line 2"},
		{"wrong version", "OPENQASM 3.0;", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.line)
		})
	}

	_, err := Parse(strings.NewReader("OPENQASM 2.0;"))
	assert.Error(t, err, "missing qreg")
}

func TestLoadCircuit_SizesLayoutToUsedQubits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.qasm")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := LoadCircuit(path, qmap.LayoutSquareSparse)

	require.NoError(t, err)
	assert.Len(t, c.Arch.AlgQubits, 3)
	assert.Equal(t, []string{"0", "1", "3"}, c.Qubits())
}

func TestGenerate_RoundTripsThroughParse(t *testing.T) {
	// GIVEN a generated program
	p, err := Generate(rand.New(rand.NewSource(3)), 6, 100)
	require.NoError(t, err)

	// WHEN written and parsed back
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	back, err := Parse(&buf)

	// THEN the gates are unchanged and every cx has distinct operands
	require.NoError(t, err)
	assert.Equal(t, p.Gates(), back.Gates())
	assert.Len(t, back.Ops, 100)
	for _, op := range back.Ops {
		for _, q := range op.Qubits {
			assert.Less(t, q, 6)
		}
		if op.Name == "cx" {
			assert.NotEqual(t, op.Qubits[0], op.Qubits[1])
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(rand.New(rand.NewSource(9)), 10, 50)
	require.NoError(t, err)
	b, err := Generate(rand.New(rand.NewSource(9)), 10, 50)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = Generate(rand.New(rand.NewSource(9)), 1, 5)
	assert.Error(t, err)
}
