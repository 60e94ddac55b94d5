package main

import (
	"log/slog"
	"strings"
	"sync"

	"subident/internal/config"
	"subident/internal/corpus"
	"subident/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	reloader   *config.Reloader
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.reloader = config.NewReloader(cfg, resolvedPath)
	})
	if c.configErr != nil {
		return nil, c.configErr
	}
	return c.reloader.Current(), nil
}

// snapshotConfig consumes pending config file edits and returns the
// refreshed snapshot. Each command run works from one snapshot; edits land
// on the next run.
func (c *commandContext) snapshotConfig() (*config.Config, error) {
	if _, err := c.ensureConfig(); err != nil {
		return nil, err
	}
	cfg, _, err := c.reloader.ReloadIfChanged()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureLogger builds the shared CLI logger from the loaded config; it
// degrades to a no-op logger when config loading failed, since the command
// will surface that error itself.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		// Logs go to stderr so that --json output stays parseable.
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// withStore opens the corpus store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *corpus.Store) error) error {
	cfg, err := c.snapshotConfig()
	if err != nil {
		return err
	}
	store, err := corpus.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}
