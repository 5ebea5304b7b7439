package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/internal/testutil"
)

type row struct {
	solution []byte
	text     []byte
	distance float64
}

type fakeRows struct {
	rows   []row
	i      int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, errors.New("not implemented") }

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	cur := r.rows[r.i-1]
	if len(dest) != 3 {
		return fmt.Errorf("expected 3 destinations, got %d", len(dest))
	}
	*dest[0].(*[]byte) = cur.solution
	*dest[1].(*[]byte) = cur.text
	*dest[2].(*float64) = cur.distance
	return nil
}

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	rows  *fakeRows
	calls []call
	err   error
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	return pgconn.CommandTag{}, f.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestNearest_ReturnsDonorsInRowOrder(t *testing.T) {
	// GIVEN two stored donors ordered by distance
	near := testutil.C4Donor(t)
	far := testutil.Mapping(t, map[string]int{"0": 20}, testutil.S9(t), [][]int{{0}})
	db := &fakeDB{rows: &fakeRows{rows: []row{
		{solution: mustJSON(t, near), text: mustJSON(t, "near"), distance: 0.1},
		{solution: mustJSON(t, far), text: []byte(`{"gates":[[0]]}`), distance: 0.4},
	}}}

	// WHEN queried
	donors, err := New(db, "").Nearest(context.Background(), []float32{1, 0, 0}, 5)

	// THEN both donors come back parsed, closest first
	require.NoError(t, err)
	require.Len(t, donors, 2)
	assert.Equal(t, near.Map, donors[0].Mapping.Map)
	assert.Equal(t, "near", donors[0].Text)
	assert.InDelta(t, 0.1, donors[0].Distance, 1e-12)
	assert.Equal(t, far.Arch, donors[1].Mapping.Arch)
	assert.Equal(t, `{"gates":[[0]]}`, donors[1].Text)
	assert.True(t, db.rows.closed)

	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, `FROM "mappings" ORDER BY embedding <=> $1 LIMIT $2`)
	assert.Equal(t, pgvector.NewVector([]float32{1, 0, 0}), db.calls[0].args[0])
	assert.Equal(t, 5, db.calls[0].args[1])
}

func TestNearest_MalformedRow(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{rows: []row{
		{solution: []byte(`{"map":{"0":6},"arch":null,"gates":[[0]]}`), text: []byte(`""`)},
	}}}

	_, err := New(db, "").Nearest(context.Background(), []float32{1}, 1)

	var mde *qmap.MalformedDataError
	require.ErrorAs(t, err, &mde)
	assert.Equal(t, "arch", mde.Field)
}

func TestNearest_NonPositiveK_DoesNotQuery(t *testing.T) {
	db := &fakeDB{}
	donors, err := New(db, "").Nearest(context.Background(), []float32{1}, 0)
	assert.NoError(t, err)
	assert.Empty(t, donors)
	assert.Empty(t, db.calls)
}

func TestNearest_QueryAndRowErrors(t *testing.T) {
	boom := errors.New("connection reset")

	_, err := New(&fakeDB{err: boom}, "").Nearest(context.Background(), []float32{1}, 3)
	assert.ErrorIs(t, err, boom)

	_, err = New(&fakeDB{rows: &fakeRows{err: boom}}, "").Nearest(context.Background(), []float32{1}, 3)
	assert.ErrorIs(t, err, boom)

	_, err = New(&fakeDB{}, "").Nearest(context.Background(), nil, 3)
	assert.Error(t, err)
}

func TestInsert_EncodesMappingAndVector(t *testing.T) {
	db := &fakeDB{}
	m := testutil.C4Donor(t)

	err := New(db, "donors").Insert(context.Background(), Record{Mapping: m, Text: "c4", Embedding: []float32{0.5, 0.25}})

	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, `INSERT INTO "donors"`)
	parsed, err := qmap.ParseMapping(db.calls[0].args[0].([]byte))
	require.NoError(t, err)
	assert.Equal(t, m.Map, parsed.Map)
	assert.JSONEq(t, `"c4"`, string(db.calls[0].args[1].([]byte)))
	assert.Equal(t, pgvector.NewVector([]float32{0.5, 0.25}), db.calls[0].args[2])
}

func TestInsert_RejectsIncompleteRecords(t *testing.T) {
	s := New(&fakeDB{}, "")
	assert.Error(t, s.Insert(context.Background(), Record{Embedding: []float32{1}}))
	assert.Error(t, s.Insert(context.Background(), Record{Mapping: testutil.C4Donor(t)}))
}

func TestCreateTable(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db, "").CreateTable(context.Background(), 768))
	require.Len(t, db.calls, 2)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", db.calls[0].sql)
	assert.Contains(t, db.calls[1].sql, "embedding VECTOR(768) NOT NULL")

	assert.Error(t, New(db, "").CreateTable(context.Background(), 0))
}
