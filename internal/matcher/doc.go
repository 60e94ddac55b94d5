// Package matcher implements the staged episode identification pipeline.
//
// A query runs through up to four stages, short-circuiting on the first
// confident result: fuzzy-hash similarity across shared normalization
// variants, direct token-overlap text similarity, vector-assisted
// re-ranking, and finally an ambiguity or no-match outcome. Each stage
// applies the same discipline: the best candidate must clear its stage
// threshold and lead the runner-up by the separation margin. Ambiguity is
// a normal result, not an error.
package matcher
