package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/fuzzyhash"
	"subident/internal/logging"
	"subident/internal/textnorm"
	"subident/internal/textrank"
	"subident/internal/vectorindex"
)

// EntrySource provides the corpus entries a query is compared against.
type EntrySource interface {
	GetAll(ctx context.Context) ([]*corpus.Entry, error)
}

// Matcher runs the staged identification pipeline against a corpus. It
// holds a threshold snapshot taken at construction; callers that consume
// config reloads build a fresh Matcher for the next run.
type Matcher struct {
	source   EntrySource
	index    *vectorindex.Index
	cfg      config.Matcher
	textRank config.TextRank
	topK     int
	logger   *slog.Logger
}

// New builds a Matcher. The vector index is optional; passing nil disables
// the vector-assisted stage.
func New(source EntrySource, index *vectorindex.Index, cfg *config.Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	topK := cfg.VectorIndex.TopK
	if !cfg.VectorIndex.Enabled {
		index = nil
	}
	return &Matcher{
		source:   source,
		index:    index,
		cfg:      cfg.Matcher,
		textRank: cfg.TextRank,
		topK:     topK,
		logger:   logger.With(logging.String(logging.FieldComponent, "matcher")),
	}
}

// Identify resolves subtitle text against the corpus without a query
// embedding; the vector stage is skipped.
func (m *Matcher) Identify(ctx context.Context, text string) (*Result, error) {
	return m.IdentifyWithEmbedding(ctx, text, nil)
}

// IdentifyWithEmbedding resolves subtitle text against the corpus. The
// embedding is optional and only consulted when the earlier stages leave
// the query unresolved. When the error wraps ErrNoConfidentMatch the
// returned Result is still populated with the best candidate's scores.
func (m *Matcher) IdentifyWithEmbedding(ctx context.Context, text string, embedding []float32) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoSubtitleText
	}

	correlationID := uuid.New().String()
	ctx = logging.WithCorrelationID(ctx, correlationID)
	logger := logging.WithContext(ctx, m.logger)

	entries, err := m.source.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrCorpusEmpty
	}

	query := text
	if m.textRank.Enabled {
		ranked := textrank.Extract(text, textrank.Params{
			TargetPercent:    m.textRank.TargetPercent,
			MinSentenceCount: m.textRank.MinSentenceCount,
			MinRetainPercent: m.textRank.MinRetainPercent,
		})
		query = ranked.FilteredText
		logger.Debug("textrank pre-filter applied",
			logging.Int("total_sentences", ranked.Stats.TotalSentences),
			logging.Int("selected_sentences", ranked.Stats.SelectedSentences),
			logging.Bool("used_fallback", ranked.UsedFallback))
	}

	queryVariants := textnorm.Normalize(query)
	queryHashes := []map[textnorm.Variant]fuzzyhash.Fingerprint{hashVariants(queryVariants)}
	if query != text {
		// Entries ingested while the pre-filter was disabled fingerprint the
		// full transcript, whose hash block size is incomparable with the
		// condensed query's. Hashing both forms guarantees every entry has a
		// comparable fingerprint pair; the better score wins.
		queryHashes = append(queryHashes, hashVariants(textnorm.Normalize(text)))
	}

	candidates := scoreHashes(entries, queryHashes...)

	if best, bestScore, second, ok := dominantCandidate(candidates, hashScore, m.cfg.MatchThreshold, m.cfg.SeparationMargin); ok {
		logger.Info("hash match",
			logging.String(logging.FieldMethod, string(MethodHash)),
			logging.String(logging.FieldSeries, best.entry.Series),
			logging.Int(logging.FieldSeason, best.entry.Season),
			logging.Int(logging.FieldEpisode, best.entry.Episode),
			logging.Int("score", bestScore),
			logging.Int("second_score", second))
		return m.matchedResult(best, MethodHash, bestScore, correlationID), nil
	}

	if m.cfg.TextFallbackEnabled {
		scoreText(candidates, queryVariants)
		if best, bestScore, second, ok := dominantCandidate(candidates, textScore, m.cfg.TextFallbackThreshold, m.cfg.SeparationMargin); ok {
			logger.Info("text fallback match",
				logging.String(logging.FieldMethod, string(MethodTextFallback)),
				logging.String(logging.FieldSeries, best.entry.Series),
				logging.Int(logging.FieldSeason, best.entry.Season),
				logging.Int(logging.FieldEpisode, best.entry.Episode),
				logging.Int("score", bestScore),
				logging.Int("second_score", second))
			return m.matchedResult(best, MethodTextFallback, bestScore, correlationID), nil
		}
	}

	if len(embedding) > 0 && m.index != nil && m.index.Len() > 0 {
		if err := m.scoreVector(candidates, embedding); err != nil {
			logger.Warn("vector stage skipped", logging.Error(err))
		} else if best, bestScore, second, ok := dominantCandidate(candidates, combinedScore, m.cfg.MatchThreshold, m.cfg.SeparationMargin); ok {
			logger.Info("vector-assisted match",
				logging.String(logging.FieldMethod, string(MethodVector)),
				logging.String(logging.FieldSeries, best.entry.Series),
				logging.Int(logging.FieldSeason, best.entry.Season),
				logging.Int(logging.FieldEpisode, best.entry.Episode),
				logging.Int("score", bestScore),
				logging.Int("second_score", second))
			return m.matchedResult(best, MethodVector, bestScore, correlationID), nil
		}
	}

	return m.unresolvedResult(candidates, correlationID, logger)
}

func (m *Matcher) matchedResult(c *scoredEntry, method Method, score int, correlationID string) *Result {
	identity := c.entry.Identity
	return &Result{
		Identity:      &identity,
		Confidence:    float64(score) / 100.0,
		Method:        method,
		HashScore:     c.hashScore,
		TextScore:     c.textScore,
		VectorScore:   c.vectorScore,
		CorrelationID: correlationID,
	}
}

// unresolvedResult distinguishes ambiguity from absence: two or more
// candidates above the interest threshold produce a named-contender result,
// anything less is ErrNoConfidentMatch. The no-match error still travels
// with a result carrying the best candidate's scores so callers can report
// how close the query came.
func (m *Matcher) unresolvedResult(candidates []*scoredEntry, correlationID string, logger *slog.Logger) (*Result, error) {
	var contenders []Contender
	var best *scoredEntry
	bestScore := 0
	for _, c := range candidates {
		score := bestSignal(c)
		if score > bestScore || best == nil {
			bestScore = score
			best = c
		}
		if score >= m.cfg.InterestThreshold {
			contenders = append(contenders, Contender{
				Identity:  c.entry.Identity,
				HashScore: c.hashScore,
				TextScore: c.textScore,
			})
		}
	}

	if len(contenders) < 2 {
		logger.Info("no confident match",
			logging.String(logging.FieldMethod, string(MethodNone)),
			logging.Int("best_score", bestScore))
		result := &Result{
			Confidence:    float64(bestScore) / 100.0,
			Method:        MethodNone,
			CorrelationID: correlationID,
		}
		if best != nil {
			result.HashScore = best.hashScore
			result.TextScore = best.textScore
		}
		return result, fmt.Errorf("%w: best score %d below interest threshold %d", ErrNoConfidentMatch, bestScore, m.cfg.InterestThreshold)
	}

	note := ambiguityNote(contenders)
	logger.Info("ambiguous match",
		logging.String(logging.FieldMethod, string(MethodNone)),
		logging.Int("best_score", bestScore),
		logging.Int("contenders", len(contenders)))
	result := &Result{
		Confidence:    float64(bestScore) / 100.0,
		Method:        MethodNone,
		Ambiguity:     note,
		Contenders:    contenders,
		CorrelationID: correlationID,
	}
	if len(candidates) > 0 {
		top := candidates[0]
		result.HashScore = top.hashScore
		result.TextScore = top.textScore
	}
	return result, nil
}

func (m *Matcher) scoreVector(candidates []*scoredEntry, embedding []float32) error {
	topK := m.topK
	if topK <= 0 {
		topK = 5
	}
	neighbors, err := m.index.Query(embedding, topK)
	if err != nil {
		return err
	}

	byKey := make(map[string]*scoredEntry, len(candidates))
	for _, c := range candidates {
		byKey[c.entry.Key()] = c
	}
	for _, neighbor := range neighbors {
		c, ok := byKey[neighbor.ID]
		if !ok {
			continue
		}
		c.vectorScore = int(vectorindex.SimilarityFromDistance(neighbor.Distance) * 100)
		// Vector similarity surfaces candidates but never decides alone:
		// it is averaged with the strongest text-derived signal.
		c.combined = (c.vectorScore + bestSignal(c)) / 2
	}
	return nil
}
