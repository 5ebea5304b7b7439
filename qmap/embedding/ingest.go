package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/simmap/simmap/qmap/store"
)

// Inserter stores a donor record. *store.Store implements it.
type Inserter interface {
	Insert(ctx context.Context, r store.Record) error
}

// IngestStats counts what happened to each file.
type IngestStats struct {
	Inserted   int
	Skipped    int // empty or timed-out solver output
	Duplicates int // circuit already ingested in this run
	Failed     int
}

// Ingester loads solver output files into a donor store. Circuits are
// de-duplicated by fingerprint across calls on the same Ingester.
type Ingester struct {
	embedder Embedder
	sink     Inserter
	seen     map[uint64]bool
}

// NewIngester creates an Ingester.
func NewIngester(embedder Embedder, sink Inserter) *Ingester {
	return &Ingester{embedder: embedder, sink: sink, seen: make(map[uint64]bool)}
}

// IngestFiles processes every path. A failing file does not stop the others;
// all failures are returned together. Context cancellation stops the run.
func (in *Ingester) IngestFiles(ctx context.Context, paths []string) (IngestStats, error) {
	var stats IngestStats
	var errs error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, multierr.Append(errs, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			stats.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		res, err := in.ingest(ctx, data)
		if err != nil {
			stats.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		switch res {
		case outcomeInserted:
			stats.Inserted++
		case outcomeSkipped:
			stats.Skipped++
			logrus.Debugf("ingest: skipping %s (empty or timed out)", path)
		case outcomeDuplicate:
			stats.Duplicates++
		}
	}
	logrus.Infof("ingest: %d inserted, %d skipped, %d duplicates, %d failed",
		stats.Inserted, stats.Skipped, stats.Duplicates, stats.Failed)
	return stats, errs
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeSkipped
	outcomeDuplicate
)

// ingest processes one solver output document.
func (in *Ingester) ingest(ctx context.Context, data []byte) (outcome, error) {
	m, skip, err := ParseSolverOutput(data)
	if err != nil {
		return 0, err
	}
	if skip {
		return outcomeSkipped, nil
	}
	circuit := m.Circuit()
	fp := circuit.Fingerprint()
	if in.seen[fp] {
		return outcomeDuplicate, nil
	}
	text, err := Text(circuit)
	if err != nil {
		return 0, err
	}
	vec, err := in.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embedding: %w", err)
	}
	if err := in.sink.Insert(ctx, store.Record{Mapping: m, Text: text, Embedding: vec}); err != nil {
		return 0, err
	}
	in.seen[fp] = true
	return outcomeInserted, nil
}
