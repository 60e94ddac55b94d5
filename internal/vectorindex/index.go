package vectorindex

import (
	"errors"
	"fmt"
	"sync"
)

// Params controls HNSW construction and query behavior.
type Params struct {
	Dimensions     int
	MaxElements    int
	M              int
	EfConstruction int
	EfSearch       int
}

// Item pairs an entry identity with its embedding for bulk rebuilds.
type Item struct {
	ID     string
	Vector []float32
}

// Candidate is one query result, ordered by ascending distance.
type Candidate struct {
	ID       string
	Distance float64
}

// ErrDimensionMismatch reports a vector whose length differs from the
// configured dimensionality.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ErrIndexFull reports an insert beyond the configured element limit.
var ErrIndexFull = errors.New("vector index full")

// Index is a thread-safe HNSW index. The zero value is not usable; call New.
type Index struct {
	mu     sync.RWMutex
	params Params
	graph  *hnswGraph

	// rebuildHook runs between graph construction and the swap; tests use it
	// to overlap queries with a rebuild.
	rebuildHook func()
}

// New creates an empty index. Queries return no candidates until the first
// Insert or Rebuild.
func New(params Params) (*Index, error) {
	if params.Dimensions <= 0 {
		return nil, fmt.Errorf("vector index dimensions %d: must be positive", params.Dimensions)
	}
	if params.M < 2 {
		return nil, fmt.Errorf("vector index m %d: must be at least 2", params.M)
	}
	if params.EfConstruction < params.M {
		params.EfConstruction = params.M
	}
	if params.EfSearch < 1 {
		params.EfSearch = 1
	}
	if params.MaxElements < 1 {
		return nil, fmt.Errorf("vector index max elements %d: must be positive", params.MaxElements)
	}
	return &Index{params: params}, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.graph == nil {
		return 0
	}
	return len(ix.graph.nodes)
}

// Insert adds a single vector. Inserting an ID that already exists replaces
// its vector by reinserting the node's links.
func (ix *Index) Insert(id string, vector []float32) error {
	if len(vector) != ix.params.Dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.params.Dimensions)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.graph == nil {
		ix.graph = newGraph(ix.params)
	}
	if len(ix.graph.nodes) >= ix.params.MaxElements {
		if _, exists := ix.graph.byID[id]; !exists {
			return fmt.Errorf("%w: limit %d", ErrIndexFull, ix.params.MaxElements)
		}
	}
	ix.graph.insert(id, vector)
	return nil
}

// Rebuild replaces the index contents from scratch. Items with a vector of
// the wrong dimension are reported as an error before any work happens, so a
// failed rebuild leaves the prior snapshot untouched. Concurrent queries are
// served from the prior snapshot until the swap.
func (ix *Index) Rebuild(items []Item) error {
	for _, item := range items {
		if len(item.Vector) != ix.params.Dimensions {
			return fmt.Errorf("%w: entry %s has %d, want %d", ErrDimensionMismatch, item.ID, len(item.Vector), ix.params.Dimensions)
		}
	}
	if len(items) > ix.params.MaxElements {
		return fmt.Errorf("%w: %d items exceed limit %d", ErrIndexFull, len(items), ix.params.MaxElements)
	}

	fresh := newGraph(ix.params)
	for _, item := range items {
		fresh.insert(item.ID, item.Vector)
	}

	if ix.rebuildHook != nil {
		ix.rebuildHook()
	}

	ix.mu.Lock()
	ix.graph = fresh
	ix.mu.Unlock()
	return nil
}

// Query returns up to k nearest candidates by ascending distance. An index
// that was never built yields an empty list, not an error.
func (ix *Index) Query(vector []float32, k int) ([]Candidate, error) {
	if len(vector) != ix.params.Dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.params.Dimensions)
	}
	if k < 1 {
		return nil, nil
	}

	// The read lock is held for the whole search: Insert mutates the live
	// graph in place, so queries must not walk it unlocked. Rebuild swaps in
	// a freshly built graph and never mutates the old snapshot.
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.graph == nil || len(ix.graph.nodes) == 0 {
		return nil, nil
	}
	return ix.graph.search(vector, k, ix.params.EfSearch), nil
}

// SimilarityFromDistance maps a cosine distance onto a similarity in [0, 1]
// with a monotone decreasing transform, for uniformity with the hash and
// text signals.
func SimilarityFromDistance(distance float64) float64 {
	sim := 1 - distance/2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
