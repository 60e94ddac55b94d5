// Package textnorm derives deterministic normalized variants from raw
// subtitle text.
//
// Every variant is a pure function of its input and idempotent: normalizing
// an already-normalized text of the same variant returns it unchanged. The
// variant set is fixed so corpus entries and query text always expose the
// same comparison surfaces. Unmappable byte sequences are replaced with the
// Unicode replacement character rather than reported as errors.
package textnorm
