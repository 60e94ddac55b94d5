// Package textrank compresses subtitle text to its most plot-relevant
// sentences before fingerprinting.
//
// Sentences form a complete graph weighted by bag-of-words cosine similarity;
// power-iteration PageRank assigns each sentence a centrality score and the
// top slice is kept in original chronological order. Short inputs and
// over-aggressive selections fall back to the full text so terse episodes
// never lose their identifiable content.
package textrank
