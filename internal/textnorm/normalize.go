package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Variant names one deterministic normalization of a source text.
type Variant string

const (
	// VariantRawLower is the source text case-folded with Unicode
	// compatibility normalization applied, whitespace untouched.
	VariantRawLower Variant = "raw-lowercased"
	// VariantStripped removes markup tags, cue indexes, timecodes, and
	// bracketed sound captions, then lowercases and collapses whitespace.
	VariantStripped Variant = "html-and-timecode-stripped"
	// VariantPunctCollapsed builds on VariantStripped and additionally
	// removes punctuation.
	VariantPunctCollapsed Variant = "punctuation-collapsed"
	// VariantWhitespace collapses whitespace runs after markup and timecode
	// removal but preserves case and punctuation.
	VariantWhitespace Variant = "whitespace-normalized"
)

// Variants returns the fixed variant set in canonical order.
func Variants() []Variant {
	return []Variant{VariantRawLower, VariantStripped, VariantPunctCollapsed, VariantWhitespace}
}

var (
	htmlTagPattern = regexp.MustCompile(`<[^>\n]*>`)
	// ASS/SSA override blocks such as {\i1} or {\pos(10,20)}.
	assTagPattern = regexp.MustCompile(`\{\\[^}]*\}`)
	// SRT/VTT cue timing lines: 00:01:02,345 --> 00:01:04,000 (plus settings).
	timecodeLinePattern = regexp.MustCompile(`(?m)^\s*\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}\s*-->\s*\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}[^\n]*$`)
	// Bare timestamps embedded in prose.
	timestampPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}\b`)
	// SRT cue index lines, matched as whole lines.
	cueIndexPattern = regexp.MustCompile(`^\s*\d+\s*$`)
	// Bracketed sound captions such as [music] or [door slams].
	soundCaptionPattern = regexp.MustCompile(`\[[^\[\]\n]*\]`)
	vttHeaderPattern    = regexp.MustCompile(`(?m)^(WEBVTT|NOTE)[^\n]*$`)
	punctuationPattern  = regexp.MustCompile(`[^\pL\pN\s]+`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// Normalize produces every variant for the given raw text. The returned map
// always contains all names from Variants().
func Normalize(text string) map[Variant]string {
	out := make(map[Variant]string, 4)
	for _, variant := range Variants() {
		out[variant] = Apply(text, variant)
	}
	return out
}

// Apply produces a single named variant. Unknown variants yield the
// whitespace-normalized form so callers never receive raw text by accident.
func Apply(text string, variant Variant) string {
	sanitized := strings.ToValidUTF8(text, "�")
	switch variant {
	case VariantRawLower:
		return fold(sanitized)
	case VariantStripped:
		return collapse(fold(stripMarkup(sanitized)))
	case VariantPunctCollapsed:
		stripped := collapse(fold(stripMarkup(sanitized)))
		return collapse(punctuationPattern.ReplaceAllString(stripped, " "))
	case VariantWhitespace:
		return collapse(stripMarkup(sanitized))
	default:
		return collapse(stripMarkup(sanitized))
	}
}

func stripMarkup(text string) string {
	text = vttHeaderPattern.ReplaceAllString(text, " ")
	text = stripCueIndexes(text)
	text = timecodeLinePattern.ReplaceAllString(text, " ")
	text = timestampPattern.ReplaceAllString(text, " ")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = assTagPattern.ReplaceAllString(text, " ")
	text = soundCaptionPattern.ReplaceAllString(text, " ")
	return text
}

// stripCueIndexes removes numeric lines only when they precede a cue timing
// line. A digits-only dialogue line has no trailing timecode and survives, so
// re-applying the variant to its own output changes nothing.
func stripCueIndexes(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !cueIndexPattern.MatchString(line) {
			continue
		}
		if i+1 < len(lines) && timecodeLinePattern.MatchString(lines[i+1]) {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func fold(text string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(text))
}

func collapse(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
