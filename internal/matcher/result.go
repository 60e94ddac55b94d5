package matcher

import (
	"errors"
	"fmt"
	"strings"

	"subident/internal/corpus"
)

// Method identifies which pipeline stage produced a result.
type Method string

const (
	MethodHash         Method = "hash"
	MethodTextFallback Method = "text-fallback"
	MethodVector       Method = "vector"
	MethodNone         Method = "none"
)

// ErrNoSubtitleText reports an empty or whitespace-only query.
var ErrNoSubtitleText = errors.New("no subtitle text to identify")

// ErrCorpusEmpty reports a query against a corpus with no entries.
var ErrCorpusEmpty = errors.New("corpus has no entries to compare against")

// ErrNoConfidentMatch reports that no candidate cleared even the interest
// threshold.
var ErrNoConfidentMatch = errors.New("no corpus entry resembles the query")

// Contender is a candidate named in an ambiguity note.
type Contender struct {
	Identity  corpus.Identity
	HashScore int
	TextScore int
}

// Result is the outcome of one identification query. Identity is nil when
// the query did not resolve; Contenders lists the plausible candidates in
// that case.
type Result struct {
	Identity      *corpus.Identity
	Confidence    float64
	Method        Method
	HashScore     int
	TextScore     int
	VectorScore   int
	Ambiguity     string
	Contenders    []Contender
	CorrelationID string
}

// Matched reports whether the query resolved to a single identity.
func (r *Result) Matched() bool {
	return r != nil && r.Identity != nil
}

func ambiguityNote(contenders []Contender) string {
	labels := make([]string, len(contenders))
	for i, c := range contenders {
		labels[i] = fmt.Sprintf("%s (hash %d, text %d)", c.Identity.Label(), c.HashScore, c.TextScore)
	}
	return "multiple plausible candidates: " + strings.Join(labels, ", ")
}
