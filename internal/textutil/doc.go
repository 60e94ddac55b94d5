// Package textutil provides text processing utilities for term vectors,
// similarity, and filename sanitization.
//
// The primary use cases are:
//   - Creating token-based term vectors from text for comparison
//   - Computing cosine similarity between term vectors
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Term vectors use term frequency counts with a precomputed norm for efficient
// comparison. Tokenization lowercases text, splits on non-alphanumeric
// characters, and filters single-character tokens. Two-character tokens are
// kept because subtitle dialogue leans heavily on short words.
package textutil
