// Package fuzzyhash implements context-triggered piecewise hashing (CTPH)
// for subtitle text.
//
// A fingerprint is built from content-defined blocks: a rolling checksum
// slides over the text and closes a block whenever it hits a trigger value
// derived from the block size, so small edits disturb only the blocks they
// touch. Each fingerprint carries two signatures, one at the chosen block
// size and one at double that size, which keeps fingerprints comparable
// across one doubling step of length drift.
//
// Comparison returns a similarity in [0, 100]. Fingerprints whose block
// sizes differ by more than one doubling step are incomparable and score 0
// rather than guessing.
package fuzzyhash
