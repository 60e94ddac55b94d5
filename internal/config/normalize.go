package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeIngest()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format != "json" && format != "console" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.MaxWorkers < 1 {
		c.Ingest.MaxWorkers = 1
	}
	if c.Ingest.MaxWorkers > MaxIngestWorkers {
		c.Ingest.MaxWorkers = MaxIngestWorkers
	}
	if c.Ingest.MinFreeSpaceMiB < 0 {
		c.Ingest.MinFreeSpaceMiB = 0
	}
}
