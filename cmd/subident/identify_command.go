package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/matcher"
	"subident/internal/subtext"
	"subident/internal/textutil"
	"subident/internal/vectorindex"
)

type identifyOutput struct {
	Matched           bool     `json:"matched"`
	Series            *string  `json:"series"`
	Season            *int     `json:"season"`
	Episode           *int     `json:"episode"`
	Title             *string  `json:"title,omitempty"`
	Confidence        float64  `json:"confidence"`
	Method            string   `json:"method"`
	HashScore         int      `json:"hash_score"`
	TextScore         int      `json:"text_score"`
	VectorScore       int      `json:"vector_score,omitempty"`
	Ambiguity         string   `json:"ambiguity,omitempty"`
	Contenders        []string `json:"contenders,omitempty"`
	SuggestedFileName string   `json:"suggested_filename,omitempty"`
	CorrelationID     string   `json:"correlation_id"`
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var embeddingPath string

	cmd := &cobra.Command{
		Use:   "identify <file|->",
		Short: "Identify the episode a subtitle file belongs to",
		Long: `Identify reads a subtitle file (SRT, VTT, ASS, or plain text; "-" for
stdin) and resolves it against the corpus. An optional query embedding
enables the vector-assisted stage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, sourceExt, err := readSubtitleInput(cmd, args[0])
			if err != nil {
				return err
			}
			text, _ := subtext.Extract(raw)

			var embedding []float32
			if embeddingPath != "" {
				embedding, err = readEmbedding(embeddingPath)
				if err != nil {
					return err
				}
			}

			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				index, err := buildQueryIndex(cmd, cfg, store, embedding)
				if err != nil {
					return err
				}

				m := matcher.New(store, index, cfg, ctx.ensureLogger())
				result, err := m.IdentifyWithEmbedding(cmd.Context(), text, embedding)
				switch {
				case errors.Is(err, matcher.ErrNoConfidentMatch):
					// The result still carries the best candidate's scores;
					// render them so the user can see how close it came.
				case err != nil:
					return err
				}

				output := buildIdentifyOutput(result, sourceExt)
				if jsonOutput {
					return writeJSON(cmd, output)
				}
				renderIdentifyResult(cmd, output)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")
	cmd.Flags().StringVar(&embeddingPath, "embedding", "", "JSON file holding the query embedding vector")
	return cmd
}

func readSubtitleInput(cmd *cobra.Command, arg string) ([]byte, string, error) {
	if arg == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return raw, ".srt", nil
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		return nil, "", fmt.Errorf("read subtitle file: %w", err)
	}
	ext := filepath.Ext(arg)
	if ext == "" {
		ext = ".srt"
	}
	return raw, ext, nil
}

func readEmbedding(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding file: %w", err)
	}
	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, fmt.Errorf("parse embedding file %s: %w", path, err)
	}
	return vector, nil
}

// buildQueryIndex indexes the corpus embeddings for this invocation. It is
// skipped entirely when the vector stage cannot run.
func buildQueryIndex(cmd *cobra.Command, cfg *config.Config, store *corpus.Store, embedding []float32) (*vectorindex.Index, error) {
	if len(embedding) == 0 || !cfg.VectorIndex.Enabled {
		return nil, nil
	}
	if len(embedding) != cfg.VectorIndex.Dimensions {
		return nil, fmt.Errorf("query embedding has %d dimensions, config expects %d", len(embedding), cfg.VectorIndex.Dimensions)
	}

	index, err := vectorindex.New(vectorindex.Params{
		Dimensions:     cfg.VectorIndex.Dimensions,
		MaxElements:    cfg.VectorIndex.MaxElements,
		M:              cfg.VectorIndex.M,
		EfConstruction: cfg.VectorIndex.EfConstruction,
		EfSearch:       cfg.VectorIndex.EfSearch,
	})
	if err != nil {
		return nil, err
	}

	entries, err := store.GetAll(cmd.Context())
	if err != nil {
		return nil, err
	}
	items := make([]vectorindex.Item, 0, len(entries))
	for _, entry := range entries {
		if entry.HasEmbedding() {
			items = append(items, vectorindex.Item{ID: entry.Key(), Vector: entry.Embedding})
		}
	}
	if err := index.Rebuild(items); err != nil {
		return nil, err
	}
	return index, nil
}

func buildIdentifyOutput(result *matcher.Result, sourceExt string) identifyOutput {
	output := identifyOutput{
		Matched:       result.Matched(),
		Confidence:    result.Confidence,
		Method:        string(result.Method),
		HashScore:     result.HashScore,
		TextScore:     result.TextScore,
		VectorScore:   result.VectorScore,
		Ambiguity:     result.Ambiguity,
		CorrelationID: result.CorrelationID,
	}
	for _, contender := range result.Contenders {
		output.Contenders = append(output.Contenders, contender.Identity.Label())
	}
	if result.Matched() {
		identity := result.Identity
		output.Series = &identity.Series
		output.Season = &identity.Season
		output.Episode = &identity.Episode
		if identity.Title != "" {
			output.Title = &identity.Title
		}
		output.SuggestedFileName = textutil.EpisodeFileName(identity.Series, identity.Season, identity.Episode, identity.Title, sourceExt)
	}
	return output
}

func renderIdentifyResult(cmd *cobra.Command, output identifyOutput) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Matched", yesNo(output.Matched)},
		{"Method", output.Method},
		{"Confidence", strconv.FormatFloat(output.Confidence, 'f', 2, 64)},
		{"Hash score", strconv.Itoa(output.HashScore)},
		{"Text score", strconv.Itoa(output.TextScore)},
	}
	if output.VectorScore > 0 {
		rows = append(rows, []string{"Vector score", strconv.Itoa(output.VectorScore)})
	}
	if output.Matched {
		rows = append(rows,
			[]string{"Series", *output.Series},
			[]string{"Season", strconv.Itoa(*output.Season)},
			[]string{"Episode", strconv.Itoa(*output.Episode)},
		)
		if output.Title != nil {
			rows = append(rows, []string{"Title", *output.Title})
		}
		rows = append(rows, []string{"Suggested name", output.SuggestedFileName})
	}

	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	if output.Ambiguity != "" {
		fmt.Fprintln(out, output.Ambiguity)
	}
}
