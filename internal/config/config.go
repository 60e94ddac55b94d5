package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Matcher contains the decision-engine thresholds.
type Matcher struct {
	// MatchThreshold is the minimum hash similarity (0-100) for a hash match.
	MatchThreshold int `toml:"match_threshold"`
	// SeparationMargin is the minimum lead (0-100) the best candidate must
	// hold over the runner-up before a match is accepted.
	SeparationMargin int `toml:"separation_margin"`
	// InterestThreshold is the floor (0-100) above which candidates are
	// named in ambiguity notes.
	InterestThreshold int `toml:"interest_threshold"`
	// TextFallbackEnabled controls the direct text-similarity stage.
	TextFallbackEnabled bool `toml:"text_fallback_enabled"`
	// TextFallbackThreshold is the minimum text similarity (0-100) for a
	// fallback match.
	TextFallbackThreshold int `toml:"text_fallback_threshold"`
}

// TextRank contains the sentence pre-filter parameters.
type TextRank struct {
	Enabled bool `toml:"enabled"`
	// TargetPercent of sentences to keep, by centrality score.
	TargetPercent int `toml:"target_percent"`
	// MinSentenceCount below which filtering falls back to the full text.
	MinSentenceCount int `toml:"min_sentence_count"`
	// MinRetainPercent guards against over-aggressive filtering: if the
	// selection keeps fewer sentences than this share of the input, the
	// full text is used instead.
	MinRetainPercent int `toml:"min_retain_percent"`
}

// VectorIndex contains HNSW construction and query parameters.
type VectorIndex struct {
	Enabled        bool `toml:"enabled"`
	Dimensions     int  `toml:"dimensions"`
	MaxElements    int  `toml:"max_elements"`
	EfConstruction int  `toml:"ef_construction"`
	EfSearch       int  `toml:"ef_search"`
	M              int  `toml:"m"`
	// TopK candidates retrieved per vector-assisted query.
	TopK int `toml:"top_k"`
}

// Ingest contains bulk ingestion settings.
type Ingest struct {
	// MaxWorkers is clamped to [1, 100] during normalization.
	MaxWorkers int `toml:"max_workers"`
	// MinFreeSpaceMiB is the disk-space floor checked before bulk runs.
	MinFreeSpaceMiB int `toml:"min_free_space_mib"`
}

// Config encapsulates all configuration values for subident.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Logging: log format and level
//   - Matcher: identification thresholds and fallback behavior
//   - TextRank: sentence pre-filter parameters
//   - VectorIndex: HNSW construction and query parameters
//   - Ingest: bulk ingestion worker limits and disk floor
type Config struct {
	Paths       Paths       `toml:"paths"`
	Logging     Logging     `toml:"logging"`
	Matcher     Matcher     `toml:"matcher"`
	TextRank    TextRank    `toml:"textrank"`
	VectorIndex VectorIndex `toml:"vector_index"`
	Ingest      Ingest      `toml:"ingest"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subident/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subident.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CorpusDBPath returns the SQLite database location under the data directory.
func (c *Config) CorpusDBPath() string {
	return filepath.Join(c.Paths.DataDir, "corpus.db")
}

// LockPath returns the lock file guarding bulk corpus operations.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "subident.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
