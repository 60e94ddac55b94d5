// Package ingest implements bulk corpus ingestion.
//
// A run walks a directory of subtitle files named
// "Series - SxxEyy - Title.ext", extracts dialogue, computes normalization
// variants and fuzzy hashes with a bounded worker pool, and funnels store
// writes through a single writer. A file lock enforces one bulk run at a
// time; cancellation is honored between items, never mid-item.
package ingest
