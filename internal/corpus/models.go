package corpus

import (
	"fmt"
	"strings"
	"time"

	"subident/internal/fuzzyhash"
	"subident/internal/textnorm"
	"subident/internal/textutil"
)

// Identity names one labeled episode.
type Identity struct {
	Series  string
	Season  int
	Episode int
	// Title is the optional episode title.
	Title string
}

// Key returns the stable identifier used for vector index entries and log
// lines, e.g. "star_trek/s01e04".
func (id Identity) Key() string {
	return fmt.Sprintf("%s/s%02de%02d", textutil.SanitizeToken(id.Series), id.Season, id.Episode)
}

// Label returns the human-facing form, e.g. "Star Trek S01E04".
func (id Identity) Label() string {
	return fmt.Sprintf("%s S%02dE%02d", strings.TrimSpace(id.Series), id.Season, id.Episode)
}

// VariantData holds one normalized rendering of an entry's text together
// with its fuzzy fingerprint.
type VariantData struct {
	Normalized  string
	Fingerprint fuzzyhash.Fingerprint
}

// Entry is one labeled corpus record.
type Entry struct {
	Identity
	RawText  string
	Variants map[textnorm.Variant]VariantData
	// Embedding is the optional fixed-length vector supplied by an external
	// embedding source; nil when absent.
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasEmbedding reports whether the entry carries an embedding vector.
func (e *Entry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// NewEntry builds an Entry from raw text, computing every normalized variant
// and its fingerprint.
func NewEntry(identity Identity, rawText string) *Entry {
	return NewCondensedEntry(identity, rawText, rawText)
}

// NewCondensedEntry builds an Entry that stores rawText verbatim but derives
// its variants and fingerprints from matchText, a condensed form of the raw
// text. Entries and queries must condense the same way or their fingerprint
// block sizes drift apart.
func NewCondensedEntry(identity Identity, rawText, matchText string) *Entry {
	variants := make(map[textnorm.Variant]VariantData, len(textnorm.Variants()))
	for variant, normalized := range textnorm.Normalize(matchText) {
		variants[variant] = VariantData{
			Normalized:  normalized,
			Fingerprint: fuzzyhash.Compute(normalized),
		}
	}
	return &Entry{
		Identity: identity,
		RawText:  rawText,
		Variants: variants,
	}
}

// Validate reports programming-contract violations on the entry.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Series) == "" {
		return fmt.Errorf("corpus entry: series must be set")
	}
	if e.Season < 0 || e.Episode < 0 {
		return fmt.Errorf("corpus entry %s: season/episode must not be negative", e.Label())
	}
	if strings.TrimSpace(e.RawText) == "" {
		return fmt.Errorf("corpus entry %s: raw text must be set", e.Label())
	}
	if len(e.Variants) == 0 {
		return fmt.Errorf("corpus entry %s: variants must be computed", e.Label())
	}
	return nil
}
