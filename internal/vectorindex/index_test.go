package vectorindex

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func testParams() Params {
	return Params{Dimensions: 4, MaxElements: 1000, M: 8, EfConstruction: 64, EfSearch: 32}
}

func TestQueryUnbuiltIndexReturnsEmpty(t *testing.T) {
	ix, err := New(testParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := ix.Query([]float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
}

func TestInsertAndQueryNearest(t *testing.T) {
	ix, err := New(testParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	vectors := map[string][]float32{
		"s01e01": {1, 0, 0, 0},
		"s01e02": {0, 1, 0, 0},
		"s01e03": {0, 0, 1, 0},
		"s01e04": {0.9, 0.1, 0, 0},
	}
	for id, vec := range vectors {
		if err := ix.Insert(id, vec); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
	}

	got, err := ix.Query([]float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != "s01e01" {
		t.Errorf("nearest = %s, want s01e01", got[0].ID)
	}
	if got[1].ID != "s01e04" {
		t.Errorf("second = %s, want s01e04", got[1].ID)
	}
	if got[0].Distance > got[1].Distance {
		t.Error("candidates not ordered by ascending distance")
	}
}

func TestInsertDimensionMismatch(t *testing.T) {
	ix, _ := New(testParams())
	if err := ix.Insert("bad", []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestInsertReplacesExistingID(t *testing.T) {
	ix, _ := New(testParams())
	if err := ix.Insert("s01e01", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := ix.Insert("s01e01", []float32{0, 1, 0, 0}); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("expected 1 element, got %d", ix.Len())
	}
	got, err := ix.Query([]float32{0, 1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].Distance > 1e-6 {
		t.Fatalf("replacement vector not used: %v", got)
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	ix, _ := New(testParams())
	if err := ix.Insert("old", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	items := []Item{
		{ID: "s02e01", Vector: []float32{0, 0, 0, 1}},
		{ID: "s02e02", Vector: []float32{0, 0, 1, 0}},
	}
	if err := ix.Rebuild(items); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("expected 2 elements after rebuild, got %d", ix.Len())
	}
	got, err := ix.Query([]float32{0, 0, 0, 1}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s02e01" {
		t.Fatalf("unexpected nearest after rebuild: %v", got)
	}
}

func TestRebuildDimensionMismatchLeavesSnapshot(t *testing.T) {
	ix, _ := New(testParams())
	if err := ix.Insert("keep", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := ix.Rebuild([]Item{{ID: "bad", Vector: []float32{1}}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	got, err := ix.Query([]float32{1, 0, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Fatalf("prior snapshot lost: %v", got)
	}
}

// TestRebuildSnapshotIsolation pauses a rebuild after the new graph is
// constructed but before the swap, and verifies queries issued during the
// pause are answered entirely from the prior snapshot.
func TestRebuildSnapshotIsolation(t *testing.T) {
	ix, _ := New(testParams())
	if err := ix.Insert("before", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	paused := make(chan struct{})
	release := make(chan struct{})
	ix.rebuildHook = func() {
		close(paused)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ix.Rebuild([]Item{{ID: "after", Vector: []float32{0, 1, 0, 0}}}); err != nil {
			t.Errorf("Rebuild: %v", err)
		}
	}()

	<-paused
	got, err := ix.Query([]float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Query during rebuild: %v", err)
	}
	if len(got) != 1 || got[0].ID != "before" {
		t.Fatalf("query during rebuild saw mixed state: %v", got)
	}

	close(release)
	wg.Wait()

	got, err = ix.Query([]float32{0, 1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Query after rebuild: %v", err)
	}
	if len(got) != 1 || got[0].ID != "after" {
		t.Fatalf("post-rebuild snapshot wrong: %v", got)
	}
}

func TestQueryLargerFixtureFindsTrueNeighbor(t *testing.T) {
	ix, _ := New(Params{Dimensions: 8, MaxElements: 5000, M: 16, EfConstruction: 200, EfSearch: 64})
	// A spread of axis-aligned and blended vectors.
	var items []Item
	for i := 0; i < 200; i++ {
		vec := make([]float32, 8)
		vec[i%8] = 1
		vec[(i+3)%8] = float32(i%7) * 0.1
		items = append(items, Item{ID: fmt.Sprintf("e%03d", i), Vector: vec})
	}
	if err := ix.Rebuild(items); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	query := make([]float32, 8)
	query[5] = 1
	got, err := ix.Query(query, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected candidates")
	}
	// The best hit must be one of the vectors dominated by axis 5.
	best := items[0]
	for _, item := range items {
		if item.ID == got[0].ID {
			best = item
			break
		}
	}
	if best.Vector[5] == 0 {
		t.Errorf("nearest candidate %s has no axis-5 component", got[0].ID)
	}
}

func TestSimilarityFromDistanceMonotone(t *testing.T) {
	distances := []float64{0, 0.1, 0.5, 1, 1.5, 2}
	prev := 1.1
	for _, d := range distances {
		sim := SimilarityFromDistance(d)
		if sim < 0 || sim > 1 {
			t.Fatalf("similarity %v out of range for distance %v", sim, d)
		}
		if sim >= prev {
			t.Fatalf("similarity not strictly decreasing at distance %v", d)
		}
		prev = sim
	}
}
