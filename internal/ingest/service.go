package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/logging"
	"subident/internal/subtext"
	"subident/internal/textrank"
)

// ErrRunInProgress reports that another bulk operation holds the corpus lock.
var ErrRunInProgress = errors.New("another bulk corpus operation is already running")

// Outcome classifies what happened to one file during a run.
type Outcome string

const (
	OutcomeStored    Outcome = "stored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// FileResult is the per-file outcome of a bulk run.
type FileResult struct {
	Path     string
	Identity corpus.Identity
	Outcome  Outcome
	Err      error
}

// Report summarizes a bulk run.
type Report struct {
	Results    []FileResult
	Stored     int
	Duplicates int
	Failed     int
	Skipped    int
	Cancelled  bool
}

// Service performs bulk ingestion against one corpus store.
type Service struct {
	cfg    *config.Config
	store  *corpus.Store
	logger *slog.Logger
	lock   *flock.Flock
}

// New constructs an ingestion service. The lock file lives next to the
// corpus database.
func New(cfg *config.Config, store *corpus.Store, logger *slog.Logger) (*Service, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("ingest service requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		logger: logger.With(logging.String(logging.FieldComponent, "ingest")),
		lock:   flock.New(cfg.LockPath()),
	}, nil
}

type preparedEntry struct {
	path     string
	identity corpus.Identity
	entry    *corpus.Entry
	err      error
}

// Run ingests every subtitle file under dir. Files fan out to a bounded
// worker pool for normalization and hashing; store writes happen on the
// calling goroutine in file-name order of completion. Cancellation is
// honored between items.
func (s *Service) Run(ctx context.Context, dir string) (*Report, error) {
	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire corpus lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release corpus lock", logging.Error(err))
		}
	}()

	files, err := collectSubtitleFiles(dir)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	if len(files) == 0 {
		s.logger.Info("no subtitle files found", logging.String("dir", dir))
		return report, nil
	}

	workers := workerCount(s.cfg.Ingest.MaxWorkers)
	if workers > len(files) {
		workers = len(files)
	}
	s.logger.Info("bulk ingest starting",
		logging.String("dir", dir),
		logging.Int("files", len(files)),
		logging.Int("workers", workers))

	jobs := make(chan string)
	results := make(chan preparedEntry)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case path, ok := <-jobs:
					if !ok {
						return
					}
					results <- s.prepareFile(path)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for prep := range results {
		result := FileResult{Path: prep.path, Identity: prep.identity}
		switch {
		case prep.err != nil:
			result.Outcome = OutcomeFailed
			result.Err = prep.err
			report.Failed++
		case ctx.Err() != nil:
			result.Outcome = OutcomeSkipped
			report.Skipped++
		default:
			result.Outcome, result.Err = s.storeEntry(ctx, prep.entry)
			switch result.Outcome {
			case OutcomeStored:
				report.Stored++
			case OutcomeDuplicate:
				report.Duplicates++
			default:
				report.Failed++
			}
		}
		if result.Err != nil {
			s.logger.Warn("file not ingested",
				logging.String("file", result.Path),
				logging.String("outcome", string(result.Outcome)),
				logging.Error(result.Err))
		}
		report.Results = append(report.Results, result)
	}

	if ctx.Err() != nil {
		report.Cancelled = true
	}
	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Path < report.Results[j].Path })
	s.logger.Info("bulk ingest finished",
		logging.Int("stored", report.Stored),
		logging.Int("duplicates", report.Duplicates),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Bool("cancelled", report.Cancelled))
	return report, nil
}

func (s *Service) storeEntry(ctx context.Context, entry *corpus.Entry) (Outcome, error) {
	err := s.store.Put(ctx, entry)
	switch {
	case err == nil:
		return OutcomeStored, nil
	case errors.Is(err, corpus.ErrDuplicateEntry):
		return OutcomeDuplicate, err
	default:
		return OutcomeFailed, err
	}
}

// prepareFile does the CPU-bound part of ingestion for one file: identity
// parsing, dialogue extraction, variant normalization, and hashing.
func (s *Service) prepareFile(path string) preparedEntry {
	prep := preparedEntry{path: path}

	identity, err := ParseFileName(path)
	if err != nil {
		prep.err = err
		return prep
	}
	prep.identity = identity

	raw, err := os.ReadFile(path)
	if err != nil {
		prep.err = fmt.Errorf("read subtitle file: %w", err)
		return prep
	}
	text, _ := subtext.Extract(raw)
	if text == "" {
		prep.err = errors.New("no dialogue text in file")
		return prep
	}

	entry := BuildEntry(s.cfg.TextRank, identity, text)
	if err := entry.Validate(); err != nil {
		prep.err = err
		return prep
	}
	prep.entry = entry
	return prep
}

// BuildEntry constructs a corpus entry from extracted dialogue text. When the
// TextRank pre-filter is enabled, the stored variants and fingerprints derive
// from the condensed text so they stay comparable with condensed queries; the
// raw text is kept verbatim.
func BuildEntry(textRank config.TextRank, identity corpus.Identity, text string) *corpus.Entry {
	if !textRank.Enabled {
		return corpus.NewEntry(identity, text)
	}
	ranked := textrank.Extract(text, textrank.Params{
		TargetPercent:    textRank.TargetPercent,
		MinSentenceCount: textRank.MinSentenceCount,
		MinRetainPercent: textRank.MinRetainPercent,
	})
	return corpus.NewCondensedEntry(identity, text, ranked.FilteredText)
}

func collectSubtitleFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if IsSubtitleFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// workerCount clamps the configured pool size to [1, MaxIngestWorkers].
// Config normalization already clamps; this guards direct construction.
func workerCount(configured int) int {
	if configured < 1 {
		return 1
	}
	if configured > config.MaxIngestWorkers {
		return config.MaxIngestWorkers
	}
	return configured
}
