package matcher

import (
	"sort"

	"subident/internal/corpus"
	"subident/internal/fuzzyhash"
	"subident/internal/textnorm"
	"subident/internal/textutil"
)

// scoredEntry accumulates per-signal scores for one corpus entry as the
// pipeline advances. All scores are on the [0,100] scale.
type scoredEntry struct {
	entry       *corpus.Entry
	hashScore   int
	textScore   int
	vectorScore int
	combined    int
}

func hashScore(c *scoredEntry) int     { return c.hashScore }
func textScore(c *scoredEntry) int     { return c.textScore }
func combinedScore(c *scoredEntry) int { return c.combined }

// bestSignal is the strongest text-derived score; vector similarity is
// deliberately excluded so it can never decide a match alone.
func bestSignal(c *scoredEntry) int {
	if c.textScore > c.hashScore {
		return c.textScore
	}
	return c.hashScore
}

// hashVariants fingerprints every normalized variant of a query text.
func hashVariants(variants map[textnorm.Variant]string) map[textnorm.Variant]fuzzyhash.Fingerprint {
	hashes := make(map[textnorm.Variant]fuzzyhash.Fingerprint, len(variants))
	for variant, normalized := range variants {
		hashes[variant] = fuzzyhash.Compute(normalized)
	}
	return hashes
}

// scoreHashes computes each entry's hash score: the maximum fuzzy-hash
// similarity across all normalization variants shared with any of the query
// fingerprint sets.
func scoreHashes(entries []*corpus.Entry, queryHashes ...map[textnorm.Variant]fuzzyhash.Fingerprint) []*scoredEntry {
	candidates := make([]*scoredEntry, 0, len(entries))
	for _, entry := range entries {
		c := &scoredEntry{entry: entry}
		for _, hashes := range queryHashes {
			for variant, queryHash := range hashes {
				data, ok := entry.Variants[variant]
				if !ok {
					continue
				}
				if score := fuzzyhash.Compare(queryHash, data.Fingerprint); score > c.hashScore {
					c.hashScore = score
				}
			}
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].hashScore != candidates[j].hashScore {
			return candidates[i].hashScore > candidates[j].hashScore
		}
		return candidates[i].entry.Key() < candidates[j].entry.Key()
	})
	return candidates
}

// scoreText computes token-overlap similarity between the query and each
// entry over the punctuation-collapsed variant, which is the most stable
// representation under subtitle line reordering. Terms are IDF-weighted
// against the candidate set so boilerplate shared by every episode counts
// less than episode-specific vocabulary.
func scoreText(candidates []*scoredEntry, queryVariants map[textnorm.Variant]string) {
	queryVec := textutil.NewTermVector(queryVariants[textnorm.VariantPunctCollapsed])
	if queryVec.TokenCount() == 0 {
		return
	}

	entryVecs := make([]*textutil.TermVector, len(candidates))
	stats := textutil.NewDocumentStats()
	for i, c := range candidates {
		data, ok := c.entry.Variants[textnorm.VariantPunctCollapsed]
		if !ok {
			continue
		}
		entryVecs[i] = textutil.NewTermVector(data.Normalized)
		stats.Add(entryVecs[i])
	}

	idf := stats.IDF()
	queryVec = queryVec.WithIDF(idf)
	for i, c := range candidates {
		if entryVecs[i] == nil {
			continue
		}
		c.textScore = int(textutil.OverlapSimilarity(queryVec, entryVecs[i].WithIDF(idf)) * 100)
	}
}

// dominantCandidate applies the shared stage test: the best candidate must
// reach the threshold and lead the runner-up by the separation margin.
func dominantCandidate(candidates []*scoredEntry, score func(*scoredEntry) int, threshold, margin int) (*scoredEntry, int, int, bool) {
	var best *scoredEntry
	bestScore := -1
	secondScore := -1
	for _, c := range candidates {
		s := score(c)
		if s > bestScore {
			secondScore = bestScore
			bestScore = s
			best = c
			continue
		}
		if s > secondScore {
			secondScore = s
		}
	}
	if best == nil {
		return nil, 0, 0, false
	}
	if secondScore < 0 {
		secondScore = 0
	}
	if bestScore < threshold {
		return best, bestScore, secondScore, false
	}
	if bestScore-secondScore < margin {
		return best, bestScore, secondScore, false
	}
	return best, bestScore, secondScore, true
}
