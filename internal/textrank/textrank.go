package textrank

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"subident/internal/textutil"
)

const (
	dampingFactor = 0.85
	convergeEps   = 1e-6
	maxIterations = 100
)

// Params controls sentence selection and the fallback guardrails.
type Params struct {
	// TargetPercent of sentences to keep, by centrality score.
	TargetPercent int
	// MinSentenceCount below which the input is returned unfiltered.
	MinSentenceCount int
	// MinRetainPercent is the smallest share of the input the selection may
	// keep before the full text is used instead.
	MinRetainPercent int
}

// Stats reports what extraction did.
type Stats struct {
	TotalSentences    int
	SelectedSentences int
	Iterations        int
}

// Result is the outcome of one extraction.
type Result struct {
	FilteredText string
	UsedFallback bool
	Stats        Stats
}

var sentenceEndPattern = regexp.MustCompile(`([.!?]+)(\s+|$)`)

// Extract selects the top TargetPercent of sentences by PageRank centrality,
// preserving chronological order. The fallback (full text, UsedFallback=true)
// triggers for short inputs and selections below the retain floor.
// Extraction is deterministic: score ties break by original sentence order.
func Extract(text string, params Params) Result {
	sentences := SplitSentences(text)
	total := len(sentences)
	stats := Stats{TotalSentences: total}

	if total <= 1 || total < params.MinSentenceCount {
		stats.SelectedSentences = total
		return Result{FilteredText: text, UsedFallback: true, Stats: stats}
	}

	scores, iterations := rankSentences(sentences)
	stats.Iterations = iterations

	keep := total * params.TargetPercent / 100
	if total*params.TargetPercent%100 != 0 {
		keep++
	}
	if keep < 1 {
		keep = 1
	}
	if keep > total {
		keep = total
	}

	floor := total * params.MinRetainPercent / 100
	if keep < floor {
		stats.SelectedSentences = total
		return Result{FilteredText: text, UsedFallback: true, Stats: stats}
	}

	selected := topByScore(scores, keep)
	stats.SelectedSentences = len(selected)

	parts := make([]string, 0, len(selected))
	for _, idx := range selected {
		parts = append(parts, sentences[idx])
	}
	return Result{FilteredText: strings.Join(parts, " "), Stats: stats}
}

// SplitSentences segments text on terminal punctuation followed by
// whitespace. Newlines without punctuation also end a sentence, which matches
// how subtitle cues break lines.
func SplitSentences(text string) []string {
	marked := sentenceEndPattern.ReplaceAllString(text, "$1\n")
	var sentences []string
	for _, line := range strings.Split(marked, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		sentences = append(sentences, trimmed)
	}
	return sentences
}

// rankSentences runs power-iteration PageRank over the sentence similarity
// graph and returns the per-sentence scores plus the iteration count.
func rankSentences(sentences []string) ([]float64, int) {
	n := len(sentences)
	vectors := make([]*textutil.TermVector, n)
	for i, sentence := range sentences {
		vectors[i] = textutil.NewTermVector(sentence)
	}

	// weights[i][j] is the edge weight between sentences i and j; the graph
	// is undirected so the matrix is symmetric with a zero diagonal.
	weights := make([][]float64, n)
	outSums := make([]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := textutil.CosineSimilarity(vectors[i], vectors[j])
			weights[i][j] = w
			weights[j][i] = w
			outSums[i] += w
			outSums[j] += w
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	iterations := 0
	for ; iterations < maxIterations; iterations++ {
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				if i == j || weights[j][i] == 0 || outSums[j] == 0 {
					continue
				}
				sum += scores[j] * weights[j][i] / outSums[j]
			}
			next[i] = (1-dampingFactor)/float64(n) + dampingFactor*sum
		}

		var delta float64
		for i := range scores {
			delta += math.Abs(next[i] - scores[i])
		}
		copy(scores, next)
		if delta < convergeEps {
			iterations++
			break
		}
	}
	return scores, iterations
}

// topByScore returns the indexes of the k highest-scoring sentences in
// chronological order. Ties keep the earlier sentence.
func topByScore(scores []float64, k int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	selected := append([]int(nil), order[:k]...)
	sort.Ints(selected)
	return selected
}
