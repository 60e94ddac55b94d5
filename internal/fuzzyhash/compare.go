package fuzzyhash

// Compare scores the similarity of two fingerprints in [0, 100].
//
// Identical input always scores 100 and two empty fingerprints score 100;
// an empty fingerprint against anything else scores 0. Fingerprints whose
// block sizes differ by more than one doubling step are incomparable and
// score 0. Within one doubling step the coarse signature of the finer
// fingerprint aligns with the fine signature of the coarser one.
func Compare(a, b Fingerprint) int {
	if a.IsZero() || b.IsZero() {
		if a.IsZero() && b.IsZero() {
			return 100
		}
		return 0
	}

	switch {
	case a.BlockSize == b.BlockSize:
		if a.Fine == b.Fine && a.Coarse == b.Coarse {
			return 100
		}
		fine := scoreSignatures(a.Fine, b.Fine, a.BlockSize)
		coarse := scoreSignatures(a.Coarse, b.Coarse, a.BlockSize*2)
		return max(fine, coarse)
	case a.BlockSize == b.BlockSize*2:
		return scoreSignatures(a.Fine, b.Coarse, a.BlockSize)
	case b.BlockSize == a.BlockSize*2:
		return scoreSignatures(a.Coarse, b.Fine, b.BlockSize)
	default:
		return 0
	}
}

// scoreSignatures converts the weighted edit distance between two block
// signatures into a similarity score, guarded by a common-substring check so
// sparse coincidental overlaps do not register.
func scoreSignatures(s1, s2 string, blockSize int) int {
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 100
	}
	if !hasCommonSubstring(s1, s2) {
		return 0
	}

	dist := weightedEditDistance(s1, s2)

	// Scale the distance by the combined signature length, then invert so
	// zero distance maps to 100.
	score := dist * signatureLength / (len(s1) + len(s2))
	score = 100 * score / signatureLength
	score = 100 - score
	if score < 0 {
		score = 0
	}

	// Small block sizes cover little text per signature character; cap the
	// score so short inputs cannot fake strong matches.
	limit := blockSize / minBlockSize * min(len(s1), len(s2))
	if score > limit {
		score = limit
	}
	return score
}

// hasCommonSubstring reports whether the signatures share a run of at least
// rollingWindow characters.
func hasCommonSubstring(s1, s2 string) bool {
	if len(s1) < rollingWindow || len(s2) < rollingWindow {
		return false
	}
	seen := make(map[string]struct{}, len(s1))
	for i := 0; i+rollingWindow <= len(s1); i++ {
		seen[s1[i:i+rollingWindow]] = struct{}{}
	}
	for i := 0; i+rollingWindow <= len(s2); i++ {
		if _, ok := seen[s2[i:i+rollingWindow]]; ok {
			return true
		}
	}
	return false
}

// weightedEditDistance is Levenshtein distance with insertions and deletions
// costing 1 and substitutions costing 2, so a substitution never beats the
// equivalent delete+insert pair.
func weightedEditDistance(s1, s2 string) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			subCost := 2
			if s1[i-1] == s2[j-1] {
				subCost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+subCost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
