package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subident/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"data_dir", cfg.Paths.DataDir},
				{"log_dir", cfg.Paths.LogDir},
				{"log format", cfg.Logging.Format},
				{"log level", cfg.Logging.Level},
				{"match_threshold", fmt.Sprintf("%d", cfg.Matcher.MatchThreshold)},
				{"separation_margin", fmt.Sprintf("%d", cfg.Matcher.SeparationMargin)},
				{"interest_threshold", fmt.Sprintf("%d", cfg.Matcher.InterestThreshold)},
				{"text_fallback", yesNo(cfg.Matcher.TextFallbackEnabled)},
				{"text_fallback_threshold", fmt.Sprintf("%d", cfg.Matcher.TextFallbackThreshold)},
				{"textrank", yesNo(cfg.TextRank.Enabled)},
				{"textrank target_percent", fmt.Sprintf("%d", cfg.TextRank.TargetPercent)},
				{"vector index", yesNo(cfg.VectorIndex.Enabled)},
				{"vector dimensions", fmt.Sprintf("%d", cfg.VectorIndex.Dimensions)},
				{"ingest max_workers", fmt.Sprintf("%d", cfg.Ingest.MaxWorkers)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
	return cmd
}

func newConfigPathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "path",
		Short:       "Print the default configuration file path",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	return cmd
}
