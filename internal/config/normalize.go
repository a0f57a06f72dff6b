package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeJpegtran()
	c.normalizeEncoder()
	c.normalizeBatch()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeJpegtran() {
	c.Jpegtran.Binary = strings.TrimSpace(c.Jpegtran.Binary)
	if c.Jpegtran.Binary == "" {
		if value, ok := os.LookupEnv("JPEGTRAN"); ok {
			c.Jpegtran.Binary = strings.TrimSpace(value)
		}
	}
	if c.Jpegtran.Binary == "" {
		c.Jpegtran.Binary = defaultJpegtranBinary
	}
	if c.Jpegtran.TimeoutSeconds <= 0 {
		c.Jpegtran.TimeoutSeconds = defaultJpegtranTimeout
	}
}

func (c *Config) normalizeEncoder() {
	if c.Encoder.Quality <= 0 {
		c.Encoder.Quality = defaultQuality
	}
	c.Encoder.Subsampling = strings.TrimSpace(c.Encoder.Subsampling)
	if c.Encoder.Subsampling == "" {
		c.Encoder.Subsampling = defaultSubsampling
	}
	c.Encoder.CopyMetadata = strings.ToLower(strings.TrimSpace(c.Encoder.CopyMetadata))
	if c.Encoder.CopyMetadata == "" {
		c.Encoder.CopyMetadata = defaultCopyMetadata
	}
}

func (c *Config) normalizeBatch() {
	if c.Batch.Jobs <= 0 {
		c.Batch.Jobs = defaultBatchJobs
	}
	if c.Batch.StaleAgeHours < 0 {
		c.Batch.StaleAgeHours = 0
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
