// Package vectorindex provides an approximate nearest-neighbor index over
// fixed-dimension embedding vectors using a hierarchical navigable small
// world (HNSW) graph.
//
// Construction parameters trade accuracy against memory and build time:
// M controls per-node connectivity, EfConstruction the search depth while
// building, EfSearch the search depth while querying.
//
// Rebuild constructs a fresh graph off to the side and swaps it in
// atomically, so concurrent queries always see either the prior or the new
// snapshot, never a partially built structure. Queries against an index that
// was never built return an empty candidate list.
package vectorindex
