package config

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"
)

// Reloader re-reads a configuration file when its modification time changes.
// Consumers call ReloadIfChanged before a bulk run; within a single
// identification the thresholds are a stable snapshot.
type Reloader struct {
	mu      sync.Mutex
	path    string
	modTime time.Time
	current *Config
}

// NewReloader wraps an already-loaded config so later runs can pick up edits.
func NewReloader(cfg *Config, path string) *Reloader {
	r := &Reloader{path: path, current: cfg}
	if info, err := os.Stat(path); err == nil {
		r.modTime = info.ModTime()
	}
	return r
}

// Current returns the most recently loaded configuration.
func (r *Reloader) Current() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// ReloadIfChanged re-parses the file when its mtime moved. It returns the
// active config and whether values were refreshed. A missing file is not an
// error; the previous snapshot stays active.
func (r *Reloader) ReloadIfChanged() (*Config, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r.current, false, nil
		}
		return r.current, false, err
	}
	if !info.ModTime().After(r.modTime) {
		return r.current, false, nil
	}

	cfg, _, _, err := Load(r.path)
	if err != nil {
		return r.current, false, err
	}
	r.current = cfg
	r.modTime = info.ModTime()
	return r.current, true, nil
}
