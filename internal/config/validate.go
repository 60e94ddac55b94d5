package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateTextRank(); err != nil {
		return err
	}
	if err := c.validateVectorIndex(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if err := ensureScoreRange(map[string]int{
		"matcher.match_threshold":         c.Matcher.MatchThreshold,
		"matcher.separation_margin":       c.Matcher.SeparationMargin,
		"matcher.interest_threshold":      c.Matcher.InterestThreshold,
		"matcher.text_fallback_threshold": c.Matcher.TextFallbackThreshold,
	}); err != nil {
		return err
	}
	if c.Matcher.InterestThreshold > c.Matcher.MatchThreshold {
		return errors.New("matcher.interest_threshold must not exceed matcher.match_threshold")
	}
	return nil
}

func (c *Config) validateTextRank() error {
	if !c.TextRank.Enabled {
		return nil
	}
	if c.TextRank.TargetPercent < 1 || c.TextRank.TargetPercent > 100 {
		return errors.New("textrank.target_percent must be between 1 and 100")
	}
	if c.TextRank.MinSentenceCount < 1 {
		return errors.New("textrank.min_sentence_count must be positive")
	}
	if c.TextRank.MinRetainPercent < 0 || c.TextRank.MinRetainPercent > 100 {
		return errors.New("textrank.min_retain_percent must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateVectorIndex() error {
	if !c.VectorIndex.Enabled {
		return nil
	}
	if c.VectorIndex.Dimensions <= 0 {
		return errors.New("vector_index.dimensions must be positive")
	}
	if c.VectorIndex.MaxElements <= 0 {
		return errors.New("vector_index.max_elements must be positive")
	}
	if c.VectorIndex.EfConstruction <= 0 {
		return errors.New("vector_index.ef_construction must be positive")
	}
	if c.VectorIndex.EfSearch <= 0 {
		return errors.New("vector_index.ef_search must be positive")
	}
	if c.VectorIndex.M < 2 {
		return errors.New("vector_index.m must be at least 2")
	}
	if c.VectorIndex.TopK <= 0 {
		return errors.New("vector_index.top_k must be positive")
	}
	return nil
}

func ensureScoreRange(values map[string]int) error {
	for name, value := range values {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", name)
		}
	}
	return nil
}
