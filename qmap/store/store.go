// Package store keeps donor mappings with their embeddings in PostgreSQL and
// answers nearest-neighbour queries through the pgvector cosine distance
// operator.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/sirupsen/logrus"

	"github.com/simmap/simmap/qmap"
)

// DefaultTable is the table donor mappings are stored in.
const DefaultTable = "mappings"

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Donor is one retrieved candidate.
type Donor struct {
	Mapping  *qmap.Mapping
	Text     string  // embedding input the donor was stored with
	Distance float64 // cosine distance to the query
}

// Record is one row to insert.
type Record struct {
	Mapping   *qmap.Mapping
	Text      string
	Embedding []float32
}

// Store reads and writes donor rows.
type Store struct {
	db    Querier
	table string
}

// New creates a Store over db. An empty table selects DefaultTable.
func New(db Querier, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, table: pgx.Identifier{table}.Sanitize()}
}

// Connect opens a connection pool with the vector type registered on every
// connection. The vector extension must already exist in the database.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// CreateTable creates the vector extension and the donor table for
// embeddings of the given dimension.
func (s *Store) CreateTable(ctx context.Context, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("embedding dimension must be > 0, got %d", dims)
	}
	if _, err := s.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	sat_solution JSONB NOT NULL,
	embedding_text JSONB NOT NULL,
	embedding VECTOR(%d) NOT NULL
)`, s.table, dims)
	if _, err := s.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

// Insert stores a donor mapping with its embedding.
func (s *Store) Insert(ctx context.Context, r Record) error {
	if r.Mapping == nil {
		return fmt.Errorf("insert: nil mapping")
	}
	if len(r.Embedding) == 0 {
		return fmt.Errorf("insert: empty embedding")
	}
	solution, err := json.Marshal(r.Mapping)
	if err != nil {
		return fmt.Errorf("insert: encoding mapping: %w", err)
	}
	text, err := json.Marshal(r.Text)
	if err != nil {
		return fmt.Errorf("insert: encoding text: %w", err)
	}
	sql := fmt.Sprintf("INSERT INTO %s (sat_solution, embedding_text, embedding) VALUES ($1, $2, $3)", s.table)
	if _, err := s.db.Exec(ctx, sql, solution, text, pgvector.NewVector(r.Embedding)); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Nearest returns up to k donors ordered by ascending cosine distance to
// query. A stored row that is not a valid mapping fails the whole call with a
// *qmap.MalformedDataError.
func (s *Store) Nearest(ctx context.Context, query []float32, k int) ([]Donor, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("nearest: empty query vector")
	}
	sql := fmt.Sprintf(
		"SELECT sat_solution, embedding_text, embedding <=> $1 AS distance FROM %s ORDER BY embedding <=> $1 LIMIT $2",
		s.table)
	rows, err := s.db.Query(ctx, sql, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}
	defer rows.Close()

	donors := make([]Donor, 0, k)
	for rows.Next() {
		var solution, text []byte
		var d Donor
		if err := rows.Scan(&solution, &text, &d.Distance); err != nil {
			return nil, fmt.Errorf("nearest: scanning row %d: %w", len(donors), err)
		}
		if d.Mapping, err = qmap.ParseMapping(solution); err != nil {
			return nil, fmt.Errorf("nearest: row %d: %w", len(donors), err)
		}
		if err := json.Unmarshal(text, &d.Text); err != nil {
			// Non-string JSON documents are kept verbatim.
			d.Text = string(text)
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}
	logrus.Debugf("store: %d donors retrieved (k=%d)", len(donors), k)
	return donors, nil
}
