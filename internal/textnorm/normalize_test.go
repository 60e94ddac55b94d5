package textnorm

import (
	"strings"
	"testing"
)

const sampleCue = `1
00:00:01,000 --> 00:00:04,500
<i>Space, the final frontier.</i>

2
00:00:05,000 --> 00:00:08,000
{\an8}These are the voyages... [dramatic music]
`

func TestNormalizeProducesAllVariants(t *testing.T) {
	variants := Normalize(sampleCue)
	if len(variants) != len(Variants()) {
		t.Fatalf("Normalize produced %d variants, want %d", len(variants), len(Variants()))
	}
	for _, name := range Variants() {
		if _, ok := variants[name]; !ok {
			t.Errorf("missing variant %q", name)
		}
	}
}

func TestStrippedVariantRemovesMarkupAndTimecodes(t *testing.T) {
	got := Apply(sampleCue, VariantStripped)

	for _, fragment := range []string{"<i>", "-->", "00:00:01", "{\\an8}", "[dramatic music]", "WEBVTT"} {
		if strings.Contains(got, strings.ToLower(fragment)) {
			t.Errorf("stripped variant still contains %q: %q", fragment, got)
		}
	}
	if !strings.Contains(got, "space, the final frontier.") {
		t.Errorf("stripped variant lost dialogue: %q", got)
	}
	if !strings.Contains(got, "these are the voyages...") {
		t.Errorf("stripped variant lost second cue: %q", got)
	}
}

func TestPunctCollapsedVariantRemovesPunctuation(t *testing.T) {
	got := Apply(sampleCue, VariantPunctCollapsed)
	if strings.ContainsAny(got, ",.!?;:'\"") {
		t.Errorf("punctuation survived: %q", got)
	}
	if !strings.Contains(got, "space the final frontier") {
		t.Errorf("unexpected punctuation-collapsed output: %q", got)
	}
}

func TestWhitespaceVariantPreservesCase(t *testing.T) {
	got := Apply("Hello   THERE\n\nworld", VariantWhitespace)
	if got != "Hello THERE world" {
		t.Errorf("Apply(whitespace) = %q", got)
	}
}

func TestApplyIdempotentPerVariant(t *testing.T) {
	inputs := []string{
		sampleCue,
		"Hello, how are you doing today?",
		"MIXED Case   with\tmany \n whitespace runs",
		"unicode: naïve façade — dash",
		"42 [music]",
		"42",
		"",
	}
	for _, input := range inputs {
		for _, variant := range Variants() {
			once := Apply(input, variant)
			twice := Apply(once, variant)
			if once != twice {
				t.Errorf("Apply(%q, %q) not idempotent: %q vs %q", input, variant, once, twice)
			}
		}
	}
}

func TestStrippedVariantKeepsNumericDialogue(t *testing.T) {
	if got := Apply("42 [music]", VariantStripped); got != "42" {
		t.Fatalf("Apply(%q) = %q, want %q", "42 [music]", got, "42")
	}
	// A bare number is dialogue unless a cue timing line follows it.
	if got := Apply("42", VariantStripped); got != "42" {
		t.Fatalf("Apply(%q) = %q, want %q", "42", got, "42")
	}
	indexed := "42\n00:00:01,000 --> 00:00:02,000\nforty-two"
	if got := Apply(indexed, VariantStripped); got != "forty-two" {
		t.Fatalf("Apply(cue with index) = %q, want %q", got, "forty-two")
	}
}

func TestApplyReplacesInvalidBytes(t *testing.T) {
	raw := "valid " + string([]byte{0xff, 0xfe}) + " tail"
	got := Apply(raw, VariantRawLower)
	if !strings.Contains(got, "�") {
		t.Errorf("expected replacement character in %q", got)
	}
	if !strings.Contains(got, "valid") || !strings.Contains(got, "tail") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestApplyDeterministic(t *testing.T) {
	for _, variant := range Variants() {
		a := Apply(sampleCue, variant)
		b := Apply(sampleCue, variant)
		if a != b {
			t.Errorf("Apply(%q) not deterministic", variant)
		}
	}
}
