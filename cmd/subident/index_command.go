package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/ingest"
	"subident/internal/vectorindex"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Vector index administration",
	}
	indexCmd.AddCommand(newIndexRebuildCommand(ctx))
	return indexCmd
}

func newIndexRebuildCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the vector index from stored embeddings",
		Long: `Rebuild re-indexes every corpus embedding, validating dimensions and
element limits against the configured parameters. Entries without an
embedding are excluded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *corpus.Store) error {
				if !cfg.VectorIndex.Enabled {
					return fmt.Errorf("vector index is disabled in configuration")
				}

				index, err := vectorindex.New(vectorindex.Params{
					Dimensions:     cfg.VectorIndex.Dimensions,
					MaxElements:    cfg.VectorIndex.MaxElements,
					M:              cfg.VectorIndex.M,
					EfConstruction: cfg.VectorIndex.EfConstruction,
					EfSearch:       cfg.VectorIndex.EfSearch,
				})
				if err != nil {
					return err
				}

				service, err := ingest.New(cfg, store, ctx.ensureLogger())
				if err != nil {
					return err
				}
				indexed, err := service.RebuildIndex(cmd.Context(), index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d entries with embeddings\n", indexed)
				return nil
			})
		},
	}
	return cmd
}
