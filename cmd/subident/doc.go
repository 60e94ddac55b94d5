// Command subident identifies television episodes from subtitle text.
//
// It compares extracted subtitle dialogue against a labeled corpus using
// fuzzy hashing, token overlap, and optional embedding vectors, and
// manages the corpus itself: single and bulk ingestion, embedding
// backfill, and vector index rebuilds.
package main
