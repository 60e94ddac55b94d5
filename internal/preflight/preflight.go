package preflight

import (
	"context"

	"subident/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckFreeSpace(cfg.Paths.DataDir, cfg.Ingest.MinFreeSpaceMiB),
		CheckCorpusStore(ctx, cfg),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// AllPassed reports whether every check in a result set succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
