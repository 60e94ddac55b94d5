package matcher

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/textnorm"
	"subident/internal/textrank"
	"subident/internal/vectorindex"
)

type fakeSource struct {
	entries []*corpus.Entry
	err     error
}

func (f *fakeSource) GetAll(context.Context) ([]*corpus.Entry, error) {
	return f.entries, f.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func makeEntry(t *testing.T, series string, season, episode int, text string) *corpus.Entry {
	t.Helper()
	entry := corpus.NewEntry(corpus.Identity{Series: series, Season: season, Episode: episode}, text)
	if err := entry.Validate(); err != nil {
		t.Fatalf("entry %s: %v", entry.Label(), err)
	}
	return entry
}

// episodeScript builds a long deterministic transcript from a vocabulary so
// that distinct vocabularies produce fully disjoint texts.
func episodeScript(vocab []string, seed int64, sentences int) string {
	rng := rand.New(rand.NewSource(seed))
	var sb strings.Builder
	for range sentences {
		words := 6 + rng.Intn(6)
		for w := range words {
			if w > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(vocab[rng.Intn(len(vocab))])
		}
		sb.WriteString(". ")
	}
	return sb.String()
}

var (
	stationVocab = []string{"airlock", "docking", "reactor", "commander", "station", "orbit", "signal", "transmission", "quarters", "manifest", "rotation", "clearance"}
	harborVocab  = []string{"tide", "lantern", "mooring", "skipper", "harbor", "gull", "ledger", "cannery", "breakwater", "foghorn", "ballast", "wharf"}
)

func TestIdentifyExactHashMatch(t *testing.T) {
	script := episodeScript(stationVocab, 3, 40)
	source := &fakeSource{entries: []*corpus.Entry{
		makeEntry(t, "Station Eleven", 1, 4, script),
		makeEntry(t, "Harbor Lights", 2, 2, episodeScript(harborVocab, 5, 40)),
	}}
	m := New(source, nil, testConfig(), nil)

	result, err := m.Identify(context.Background(), script)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !result.Matched() {
		t.Fatal("expected a match")
	}
	if result.Method != MethodHash {
		t.Fatalf("expected method %s, got %s", MethodHash, result.Method)
	}
	if result.Identity.Series != "Station Eleven" || result.Identity.Season != 1 || result.Identity.Episode != 4 {
		t.Fatalf("wrong identity: %+v", result.Identity)
	}
	if result.Confidence < 0.99 {
		t.Fatalf("expected confidence near 1.0 for identical text, got %v", result.Confidence)
	}
	if result.HashScore != 100 {
		t.Fatalf("expected hash score 100, got %d", result.HashScore)
	}
	if result.CorrelationID == "" {
		t.Fatal("expected a correlation id")
	}
}

func TestIdentifyHashMatchWithCondenseEnabled(t *testing.T) {
	script := episodeScript(stationVocab, 37, 60)
	entries := []*corpus.Entry{
		makeEntry(t, "Station Eleven", 1, 4, script),
		makeEntry(t, "Harbor Lights", 2, 2, episodeScript(harborVocab, 41, 60)),
	}

	cfg := testConfig()
	cfg.TextRank.Enabled = true
	m := New(&fakeSource{entries: entries}, nil, cfg, nil)

	// Entries fingerprint the full transcript while the condensed query does
	// not; the full-text fingerprint pair must still carry the hash stage.
	result, err := m.Identify(context.Background(), script)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Method != MethodHash {
		t.Fatalf("expected method %s, got %s (hash %d, text %d)", MethodHash, result.Method, result.HashScore, result.TextScore)
	}
	if result.HashScore != 100 {
		t.Fatalf("expected hash score 100 for identical text, got %d", result.HashScore)
	}
	if result.Identity.Series != "Station Eleven" || result.Identity.Episode != 4 {
		t.Fatalf("wrong identity: %+v", result.Identity)
	}
}

func TestIdentifyHashMatchOnCondensedCorpus(t *testing.T) {
	cfg := testConfig()
	cfg.TextRank.Enabled = true
	params := textrank.Params{
		TargetPercent:    cfg.TextRank.TargetPercent,
		MinSentenceCount: cfg.TextRank.MinSentenceCount,
		MinRetainPercent: cfg.TextRank.MinRetainPercent,
	}

	script := episodeScript(stationVocab, 43, 60)
	other := episodeScript(harborVocab, 47, 60)
	entries := []*corpus.Entry{
		corpus.NewCondensedEntry(corpus.Identity{Series: "Station Eleven", Season: 1, Episode: 7}, script, textrank.Extract(script, params).FilteredText),
		corpus.NewCondensedEntry(corpus.Identity{Series: "Harbor Lights", Season: 2, Episode: 9}, other, textrank.Extract(other, params).FilteredText),
	}

	m := New(&fakeSource{entries: entries}, nil, cfg, nil)
	result, err := m.Identify(context.Background(), script)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Method != MethodHash {
		t.Fatalf("expected method %s, got %s (hash %d, text %d)", MethodHash, result.Method, result.HashScore, result.TextScore)
	}
	if result.HashScore != 100 {
		t.Fatalf("expected hash score 100, got %d", result.HashScore)
	}
	if result.Identity.Episode != 7 {
		t.Fatalf("wrong identity: %+v", result.Identity)
	}
}

func TestIdentifyAmbiguousNamesContenders(t *testing.T) {
	script := episodeScript(stationVocab, 7, 40)
	source := &fakeSource{entries: []*corpus.Entry{
		makeEntry(t, "Station Eleven", 1, 1, script),
		makeEntry(t, "Station Eleven", 1, 2, script),
	}}
	m := New(source, nil, testConfig(), nil)

	result, err := m.Identify(context.Background(), script)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Matched() {
		t.Fatalf("expected no single match, got %s", result.Identity.Label())
	}
	if result.Method != MethodNone {
		t.Fatalf("expected method %s, got %s", MethodNone, result.Method)
	}
	if len(result.Contenders) != 2 {
		t.Fatalf("expected 2 contenders, got %d", len(result.Contenders))
	}
	for _, label := range []string{"Station Eleven S01E01", "Station Eleven S01E02"} {
		if !strings.Contains(result.Ambiguity, label) {
			t.Fatalf("ambiguity note missing %q: %s", label, result.Ambiguity)
		}
	}
	if result.Confidence < 0.99 {
		t.Fatalf("expected best-candidate confidence near 1.0, got %v", result.Confidence)
	}
}

func TestIdentifyTextFallbackOnReorderedWords(t *testing.T) {
	script := episodeScript(stationVocab, 11, 40)
	source := &fakeSource{entries: []*corpus.Entry{
		makeEntry(t, "Station Eleven", 1, 6, script),
		makeEntry(t, "Harbor Lights", 3, 1, episodeScript(harborVocab, 13, 40)),
	}}
	m := New(source, nil, testConfig(), nil)

	// Shuffle words thoroughly so the fuzzy hashes diverge while the token
	// set stays identical.
	words := strings.Fields(strings.ReplaceAll(script, ".", ""))
	rng := rand.New(rand.NewSource(17))
	rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	query := strings.Join(words, " ")

	result, err := m.Identify(context.Background(), query)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !result.Matched() {
		t.Fatal("expected a fallback match")
	}
	if result.Method != MethodTextFallback {
		t.Fatalf("expected method %s, got %s", MethodTextFallback, result.Method)
	}
	if result.Identity.Episode != 6 {
		t.Fatalf("wrong identity: %+v", result.Identity)
	}
	if result.TextScore < 55 {
		t.Fatalf("expected text score above fallback threshold, got %d", result.TextScore)
	}
}

func TestScoreTextDownweightsSharedBoilerplate(t *testing.T) {
	boiler := "subtitles synced and corrected for the archive release"
	script := episodeScript(stationVocab, 53, 20)
	entries := []*corpus.Entry{
		makeEntry(t, "Station Eleven", 4, 1, boiler+" "+script),
		makeEntry(t, "Harbor Lights", 4, 2, boiler+" "+episodeScript(harborVocab, 59, 20)),
	}
	candidates := scoreHashes(entries)

	scoreText(candidates, textnorm.Normalize(boiler+" "+script))

	var station, harbor *scoredEntry
	for _, c := range candidates {
		if c.entry.Series == "Station Eleven" {
			station = c
		} else {
			harbor = c
		}
	}
	if station.textScore != 100 {
		t.Fatalf("identical text should score 100, got %d", station.textScore)
	}
	if harbor.textScore >= 55 {
		t.Fatalf("shared boilerplate alone should stay below the fallback threshold, got %d", harbor.textScore)
	}
}

func TestIdentifyVectorDisambiguatesIdenticalTexts(t *testing.T) {
	script := episodeScript(stationVocab, 19, 40)
	entryA := makeEntry(t, "Station Eleven", 2, 3, script)
	entryB := makeEntry(t, "Station Eleven", 2, 4, script)
	source := &fakeSource{entries: []*corpus.Entry{entryA, entryB}}

	cfg := testConfig()
	cfg.Matcher.TextFallbackEnabled = false
	cfg.VectorIndex.Dimensions = 3

	index, err := vectorindex.New(vectorindex.Params{Dimensions: 3, MaxElements: 16, M: 4, EfConstruction: 16, EfSearch: 8})
	if err != nil {
		t.Fatalf("vectorindex.New: %v", err)
	}
	if err := index.Rebuild([]vectorindex.Item{
		{ID: entryA.Key(), Vector: []float32{1, 0, 0}},
		{ID: entryB.Key(), Vector: []float32{0, 1, 0}},
	}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	m := New(source, index, cfg, nil)
	result, err := m.IdentifyWithEmbedding(context.Background(), script, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("IdentifyWithEmbedding: %v", err)
	}
	if !result.Matched() {
		t.Fatal("expected vector stage to resolve the tie")
	}
	if result.Method != MethodVector {
		t.Fatalf("expected method %s, got %s", MethodVector, result.Method)
	}
	if result.Identity.Episode != 3 {
		t.Fatalf("expected the embedding's episode, got %+v", result.Identity)
	}
	if result.VectorScore != 100 {
		t.Fatalf("expected vector score 100, got %d", result.VectorScore)
	}
}

func TestIdentifyNoConfidentMatch(t *testing.T) {
	source := &fakeSource{entries: []*corpus.Entry{
		makeEntry(t, "Harbor Lights", 1, 1, episodeScript(harborVocab, 23, 40)),
	}}
	m := New(source, nil, testConfig(), nil)

	result, err := m.Identify(context.Background(), episodeScript(stationVocab, 29, 40))
	if !errors.Is(err, ErrNoConfidentMatch) {
		t.Fatalf("expected ErrNoConfidentMatch, got %v", err)
	}
	if result == nil {
		t.Fatal("expected a result carrying the best candidate's scores")
	}
	if result.Matched() || result.Method != MethodNone {
		t.Fatalf("expected an unmatched result, got %+v", result)
	}
	best := result.HashScore
	if result.TextScore > best {
		best = result.TextScore
	}
	if result.Confidence != float64(best)/100.0 {
		t.Fatalf("confidence %v does not reflect best score %d", result.Confidence, best)
	}
	if result.CorrelationID == "" {
		t.Fatal("expected a correlation id")
	}
}

func TestIdentifyEmptyCorpus(t *testing.T) {
	m := New(&fakeSource{}, nil, testConfig(), nil)

	_, err := m.Identify(context.Background(), "Some perfectly fine subtitle text.")
	if !errors.Is(err, ErrCorpusEmpty) {
		t.Fatalf("expected ErrCorpusEmpty, got %v", err)
	}
}

func TestIdentifyEmptyInput(t *testing.T) {
	m := New(&fakeSource{entries: []*corpus.Entry{
		makeEntry(t, "Station Eleven", 1, 1, episodeScript(stationVocab, 31, 40)),
	}}, nil, testConfig(), nil)

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := m.Identify(context.Background(), input); !errors.Is(err, ErrNoSubtitleText) {
			t.Fatalf("input %q: expected ErrNoSubtitleText, got %v", input, err)
		}
	}
}
