package qmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const c4ArchJSON = `{"height":5,"width":5,"alg_qubits":[6,16,8,18],"magic_states":[1,3,9,19,23,21,5,15]}`

func TestParseMapping_ValidDocument(t *testing.T) {
	doc := `{"map":{"0":6,"1":16,"2":8,"3":18},"arch":` + c4ArchJSON + `,"gates":[[0,1],[2,3]]}`

	m, err := ParseMapping([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"0": 6, "1": 16, "2": 8, "3": 18}, m.Map)
	assert.Equal(t, archC4(t), m.Arch)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, m.Gates)
	assert.NoError(t, m.Validate())
}

func TestParseCircuit_ValidDocument(t *testing.T) {
	c, err := ParseCircuit([]byte(`{"arch":` + c4ArchJSON + `,"gates":[[3],[0,2]]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "0", "2"}, c.Qubits())
}

func TestParse_MalformedDocuments(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		doc   string
		field string
	}{
		{
			name:  "missing gates",
			parse: parseMappingErr,
			doc:   `{"map":{},"arch":` + c4ArchJSON + `}`,
			field: "gates",
		},
		{
			name:  "null alg site",
			parse: parseArchErr,
			doc:   `{"height":5,"width":5,"alg_qubits":[6,null],"magic_states":[]}`,
			field: "arch.alg_qubits[1]",
		},
		{
			name:  "fractional width",
			parse: parseArchErr,
			doc:   `{"height":5,"width":5.5,"alg_qubits":[],"magic_states":[]}`,
			field: "arch.width",
		},
		{
			name:  "string height",
			parse: parseArchErr,
			doc:   `{"height":"5","width":5,"alg_qubits":[],"magic_states":[]}`,
			field: "arch.height",
		},
		{
			name:  "unknown top-level field",
			parse: parseMappingErr,
			doc:   `{"map":{},"arch":` + c4ArchJSON + `,"gates":[],"extra":1}`,
			field: "extra",
		},
		{
			name:  "unknown nested field",
			parse: parseCircuitErr,
			doc:   `{"arch":{"height":5,"width":5,"alg_qubits":[],"magic_states":[],"depth":2},"gates":[]}`,
			field: "arch.depth",
		},
		{
			name:  "map value not integer",
			parse: parseMappingErr,
			doc:   `{"map":{"0":"6"},"arch":` + c4ArchJSON + `,"gates":[[0]]}`,
			field: `map["0"]`,
		},
		{
			name:  "gate is not a list",
			parse: parseCircuitErr,
			doc:   `{"arch":` + c4ArchJSON + `,"gates":[[0,1],2]}`,
			field: "gates[1]",
		},
		{
			name:  "document is a list",
			parse: parseMappingErr,
			doc:   `[]`,
			field: "document",
		},
		{
			name:  "trailing data",
			parse: parseArchErr,
			doc:   `{"height":5,"width":5,"alg_qubits":[],"magic_states":[]} {}`,
			field: "",
		},
		{
			name:  "site outside grid",
			parse: parseArchErr,
			doc:   `{"height":2,"width":2,"alg_qubits":[4],"magic_states":[]}`,
			field: "arch.alg_qubits",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse([]byte(tt.doc))
			var mde *MalformedDataError
			require.True(t, errors.As(err, &mde), "want MalformedDataError, got %v", err)
			assert.Equal(t, tt.field, mde.Field)
		})
	}
}

func TestParseRouting_NormalizesOpKinds(t *testing.T) {
	doc := `{"map":{"0":6,"1":16},"arch":` + c4ArchJSON + `,"gates":[[0],[0,1]],` +
		`"steps":[[{"id":0,"op":"tdg","qubits":[0],"path":[6,1]}],` +
		`[{"id":1,"op":"cnot","qubits":[0,1],"path":[6,11,16]}]]}`

	r, err := ParseRouting([]byte(doc))

	require.NoError(t, err)
	require.Equal(t, 2, r.NumSteps())
	assert.Equal(t, OpT, r.Steps[0][0].Op)
	assert.Equal(t, OpCX, r.Steps[1][0].Op)
	assert.Equal(t, []int{6, 11, 16}, r.Steps[1][0].Path)
}

func TestParseRouting_UnknownOpKind(t *testing.T) {
	doc := `{"map":{"0":6},"arch":` + c4ArchJSON + `,"gates":[[0]],` +
		`"steps":[[{"id":0,"op":"h","qubits":[0],"path":[6]}]]}`

	_, err := ParseRouting([]byte(doc))

	var mde *MalformedDataError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, "steps[0][0].op", mde.Field)
}

func parseArchErr(b []byte) error {
	_, err := ParseArchitecture(b)
	return err
}

func parseCircuitErr(b []byte) error {
	_, err := ParseCircuit(b)
	return err
}

func parseMappingErr(b []byte) error {
	_, err := ParseMapping(b)
	return err
}

func TestParseMapping_NonCanonicalKey(t *testing.T) {
	// GIVEN a donor document whose keys alias qubit 1
	doc := `{"map":{"01":6,"1":16,"001":8},"arch":` + c4ArchJSON + `,"gates":[[1]]}`

	// WHEN parsing it
	_, err := ParseMapping([]byte(doc))

	// THEN it is rejected as malformed
	var mde *MalformedDataError
	require.ErrorAs(t, err, &mde)
	assert.Equal(t, `map["001"]`, mde.Field)
}

func TestParseMapping_FirstBadEntryIsStable(t *testing.T) {
	// GIVEN several invalid map entries
	doc := `{"map":{"7":"x","3":null,"5":1.5},"arch":` + c4ArchJSON + `,"gates":[[3]]}`

	// WHEN parsing repeatedly
	// THEN the same field is reported each time
	for i := 0; i < 50; i++ {
		var mde *MalformedDataError
		require.ErrorAs(t, parseMappingErr([]byte(doc)), &mde)
		require.Equal(t, `map["3"]`, mde.Field)
	}
}
