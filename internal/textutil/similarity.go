package textutil

import "math"

// CosineSimilarity computes the cosine similarity between two term vectors.
// Returns 0 if either vector is nil or has zero norm.
func CosineSimilarity(a, b *TermVector) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// OverlapSimilarity computes the weighted token overlap between two vectors:
// the sum of per-term minimum weights over the sum of per-term maximum
// weights. With uniform weights this reduces to the Jaccard index over
// unique tokens. Returns 0 when either side is empty.
func OverlapSimilarity(a, b *TermVector) float64 {
	if a == nil || b == nil || len(a.tokens) == 0 || len(b.tokens) == 0 {
		return 0
	}
	var shared, union float64
	for token, weight := range a.tokens {
		other, ok := b.tokens[token]
		if !ok {
			union += weight
			continue
		}
		shared += math.Min(weight, other)
		union += math.Max(weight, other)
	}
	for token, weight := range b.tokens {
		if _, ok := a.tokens[token]; !ok {
			union += weight
		}
	}
	if union == 0 {
		return 0
	}
	return shared / union
}
