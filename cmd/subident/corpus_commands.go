package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/ingest"
	"subident/internal/preflight"
	"subident/internal/subtext"
	"subident/internal/textnorm"
)

func newCorpusCommand(ctx *commandContext) *cobra.Command {
	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the labeled subtitle corpus",
	}

	corpusCmd.AddCommand(newCorpusAddCommand(ctx))
	corpusCmd.AddCommand(newCorpusImportCommand(ctx))
	corpusCmd.AddCommand(newCorpusListCommand(ctx))
	corpusCmd.AddCommand(newCorpusShowCommand(ctx))
	corpusCmd.AddCommand(newCorpusRemoveCommand(ctx))
	corpusCmd.AddCommand(newCorpusEmbedCommand(ctx))

	return corpusCmd
}

func newCorpusAddCommand(ctx *commandContext) *cobra.Command {
	var series string
	var season, episode int
	var title string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add one subtitle file to the corpus",
		Long: `Add stores a single labeled subtitle file. The identity is parsed from
a "Series - SxxEyy - Title.ext" file name, or supplied explicitly with
--series/--season/--episode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := resolveIdentity(args[0], series, season, episode, title)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitle file: %w", err)
			}
			text, _ := subtext.Extract(raw)

			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				entry := ingest.BuildEntry(cfg.TextRank, identity, text)
				if err := store.Put(cmd.Context(), entry); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d variants)\n", entry.Label(), len(entry.Variants))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&series, "series", "", "Series name (overrides the file name)")
	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number")
	cmd.Flags().StringVar(&title, "title", "", "Episode title")
	return cmd
}

func resolveIdentity(path, series string, season, episode int, title string) (corpus.Identity, error) {
	if strings.TrimSpace(series) != "" {
		if season <= 0 || episode <= 0 {
			return corpus.Identity{}, fmt.Errorf("--series requires --season and --episode")
		}
		return corpus.Identity{Series: strings.TrimSpace(series), Season: season, Episode: episode, Title: strings.TrimSpace(title)}, nil
	}
	return ingest.ParseFileName(path)
}

func newCorpusImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Bulk-import a directory of subtitle files",
		Long: `Import walks a directory of "Series - SxxEyy - Title.ext" subtitle
files and ingests them with a bounded worker pool. Interrupting the run
stops it between files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				if err := runPreflight(cmd, cfg); err != nil {
					return err
				}

				service, err := ingest.New(cfg, store, ctx.ensureLogger())
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()

				report, err := service.Run(runCtx, args[0])
				if err != nil {
					return err
				}
				renderImportReport(cmd, report)
				return nil
			})
		},
	}
	return cmd
}

func runPreflight(cmd *cobra.Command, cfg *config.Config) error {
	results := preflight.RunAll(cmd.Context(), cfg)
	if preflight.AllPassed(results) {
		return nil
	}
	for _, result := range results {
		if !result.Passed {
			fmt.Fprintf(cmd.ErrOrStderr(), "preflight failed: %s: %s\n", result.Name, result.Detail)
		}
	}
	return fmt.Errorf("preflight checks failed")
}

func renderImportReport(cmd *cobra.Command, report *ingest.Report) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		detail := ""
		if result.Err != nil {
			detail = result.Err.Error()
		}
		label := ""
		if result.Identity.Series != "" {
			label = result.Identity.Label()
		}
		rows = append(rows, []string{result.Path, label, string(result.Outcome), detail})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Identity", "Outcome", "Detail"}, rows, nil))
	fmt.Fprintf(out, "stored %d, duplicates %d, failed %d, skipped %d\n",
		report.Stored, report.Duplicates, report.Failed, report.Skipped)
	if report.Cancelled {
		fmt.Fprintln(out, "run cancelled before completion")
	}
}

func newCorpusListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List corpus entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				entries, err := store.GetAll(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOutput {
					type listEntry struct {
						Series       string `json:"series"`
						Season       int    `json:"season"`
						Episode      int    `json:"episode"`
						Title        string `json:"title,omitempty"`
						Variants     int    `json:"variants"`
						HasEmbedding bool   `json:"has_embedding"`
					}
					payload := make([]listEntry, 0, len(entries))
					for _, entry := range entries {
						payload = append(payload, listEntry{
							Series:       entry.Series,
							Season:       entry.Season,
							Episode:      entry.Episode,
							Title:        entry.Title,
							Variants:     len(entry.Variants),
							HasEmbedding: entry.HasEmbedding(),
						})
					}
					return writeJSON(cmd, payload)
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Series,
						strconv.Itoa(entry.Season),
						strconv.Itoa(entry.Episode),
						entry.Title,
						strconv.Itoa(len(entry.Variants)),
						yesNo(entry.HasEmbedding()),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Series", "Season", "Episode", "Title", "Variants", "Embedding"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the listing as JSON")
	return cmd
}

func newCorpusShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <series> <season> <episode>",
		Short: "Show one corpus entry in detail",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, episode, err := parseSeasonEpisode(args[1], args[2])
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				entry, err := store.Get(cmd.Context(), args[0], season, episode)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n", entry.Label())
				if entry.Title != "" {
					fmt.Fprintf(out, "Title: %s\n", entry.Title)
				}
				fmt.Fprintf(out, "Raw text: %d bytes\n", len(entry.RawText))
				fmt.Fprintf(out, "Embedding: %s\n", yesNo(entry.HasEmbedding()))
				fmt.Fprintf(out, "Created: %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))

				rows := make([][]string, 0, len(entry.Variants))
				for _, variant := range textnorm.Variants() {
					data, ok := entry.Variants[variant]
					if !ok {
						continue
					}
					rows = append(rows, []string{
						string(variant),
						strconv.Itoa(len(data.Normalized)),
						data.Fingerprint.String(),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Variant", "Bytes", "Fuzzy hash"}, rows, nil))
				return nil
			})
		},
	}
	return cmd
}

func newCorpusRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <series> <season> <episode>",
		Short: "Remove one corpus entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, episode, err := parseSeasonEpisode(args[1], args[2])
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				if err := store.Delete(cmd.Context(), args[0], season, episode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s S%02dE%02d\n", args[0], season, episode)
				return nil
			})
		},
	}
	return cmd
}

func newCorpusEmbedCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <vectors.json>",
		Short: "Backfill missing embeddings from a vectors file",
		Long: `Embed reads a JSON object mapping entry keys to embedding vectors and
backfills every corpus entry that is still missing one. Entries with an
embedding already stored are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				service, err := ingest.New(cfg, store, ctx.ensureLogger())
				if err != nil {
					return err
				}
				report, err := service.BackfillEmbeddings(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "filled %d embeddings, %d entries still missing\n", report.Filled, report.Missing)
				return nil
			})
		},
	}
	return cmd
}

func parseSeasonEpisode(seasonArg, episodeArg string) (int, int, error) {
	season, err := strconv.Atoi(seasonArg)
	if err != nil {
		return 0, 0, fmt.Errorf("parse season %q: %w", seasonArg, err)
	}
	episode, err := strconv.Atoi(episodeArg)
	if err != nil {
		return 0, 0, fmt.Errorf("parse episode %q: %w", episodeArg, err)
	}
	return season, episode, nil
}
