package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// TermVector represents a term-frequency vector for text similarity comparison.
type TermVector struct {
	tokens map[string]float64
	norm   float64
}

// NewTermVector creates a term vector from the provided text.
// Returns nil if the text produces no valid tokens.
func NewTermVector(text string) *TermVector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &TermVector{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits text into lowercase tokens, dropping single-character tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 2 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of unique tokens in the vector.
func (v *TermVector) TokenCount() int {
	if v == nil {
		return 0
	}
	return len(v.tokens)
}

// WithIDF returns a new TermVector with TF-IDF weights applied.
// Each term's count is multiplied by its IDF weight. The norm is recomputed.
// Terms absent from the IDF map retain their original weight.
func (v *TermVector) WithIDF(idf map[string]float64) *TermVector {
	if v == nil || len(idf) == 0 {
		return v
	}
	weighted := make(map[string]float64, len(v.tokens))
	var norm float64
	for token, count := range v.tokens {
		w := count
		if idfVal, ok := idf[token]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[token] = w
		norm += w * w
	}
	if len(weighted) == 0 {
		return nil
	}
	return &TermVector{
		tokens: weighted,
		norm:   math.Sqrt(norm),
	}
}

// DocumentStats collects document frequency statistics for IDF computation.
type DocumentStats struct {
	docCount int
	docFreq  map[string]int
}

// NewDocumentStats creates an empty document-frequency accumulator.
func NewDocumentStats() *DocumentStats {
	return &DocumentStats{docFreq: make(map[string]int)}
}

// Add registers a term vector's unique terms.
func (s *DocumentStats) Add(v *TermVector) {
	if s == nil || v == nil {
		return
	}
	s.docCount++
	for token := range v.tokens {
		s.docFreq[token]++
	}
}

// IDF computes smoothed inverse document frequency weights:
// log((N+1)/(1+df)) + 1 for each term. The +1 keeps terms that appear in
// every document at a small positive weight instead of erasing them.
func (s *DocumentStats) IDF() map[string]float64 {
	if s == nil || s.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(s.docFreq))
	n := float64(s.docCount)
	for term, df := range s.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
