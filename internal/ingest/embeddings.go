package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"subident/internal/logging"
	"subident/internal/vectorindex"
)

// BackfillReport summarizes an embedding backfill run.
type BackfillReport struct {
	Filled  int
	Missing int
}

// LoadVectors reads a JSON object mapping entry keys (see
// corpus.Identity.Key) to embedding vectors.
func LoadVectors(path string) (map[string][]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectors file: %w", err)
	}
	vectors := make(map[string][]float32)
	if err := json.Unmarshal(raw, &vectors); err != nil {
		return nil, fmt.Errorf("parse vectors file %s: %w", path, err)
	}
	return vectors, nil
}

// BackfillEmbeddings fills missing embeddings from an external vectors
// file. Entries without a vector in the file are counted, not failed; the
// vector stage degrades gracefully without them.
func (s *Service) BackfillEmbeddings(ctx context.Context, vectorsPath string) (*BackfillReport, error) {
	vectors, err := LoadVectors(vectorsPath)
	if err != nil {
		return nil, err
	}

	missing, err := s.store.EntriesMissingEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries missing embeddings: %w", err)
	}

	report := &BackfillReport{}
	dims := s.cfg.VectorIndex.Dimensions
	for _, identity := range missing {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		vector, ok := vectors[identity.Key()]
		if !ok {
			report.Missing++
			continue
		}
		if len(vector) != dims {
			return report, fmt.Errorf("embedding for %s has %d dimensions, expected %d", identity.Label(), len(vector), dims)
		}
		if err := s.store.SetEmbedding(ctx, identity.Series, identity.Season, identity.Episode, vector); err != nil {
			return report, fmt.Errorf("backfill %s: %w", identity.Label(), err)
		}
		report.Filled++
	}

	s.logger.Info("embedding backfill finished",
		logging.Int("filled", report.Filled),
		logging.Int("still_missing", report.Missing))
	return report, nil
}

// RebuildIndex re-indexes every entry that carries an embedding. Entries
// without one are excluded rather than failed.
func (s *Service) RebuildIndex(ctx context.Context, index *vectorindex.Index) (int, error) {
	entries, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corpus entries: %w", err)
	}

	items := make([]vectorindex.Item, 0, len(entries))
	for _, entry := range entries {
		if !entry.HasEmbedding() {
			continue
		}
		items = append(items, vectorindex.Item{ID: entry.Key(), Vector: entry.Embedding})
	}
	if err := index.Rebuild(items); err != nil {
		return 0, fmt.Errorf("rebuild vector index: %w", err)
	}

	s.logger.Info("vector index rebuilt", logging.Int("indexed", len(items)))
	return len(items), nil
}
