package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJpegtran(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJpegtran() error {
	if strings.TrimSpace(c.Jpegtran.Binary) == "" {
		return errors.New("jpegtran.binary must be set")
	}
	if c.Jpegtran.TimeoutSeconds <= 0 {
		return errors.New("jpegtran.timeout_seconds must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Quality < 1 || c.Encoder.Quality > 100 {
		return errors.New("encoder.quality must be between 1 and 100")
	}
	switch c.Encoder.Subsampling {
	case "444", "440", "422", "420":
	default:
		return fmt.Errorf("encoder.subsampling must be one of 444, 440, 422, 420 (got %q)", c.Encoder.Subsampling)
	}
	switch c.Encoder.CopyMetadata {
	case "none", "comments", "all":
	default:
		return fmt.Errorf("encoder.copy_metadata must be one of none, comments, all (got %q)", c.Encoder.CopyMetadata)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Jobs < 1 {
		return errors.New("batch.jobs must be >= 1")
	}
	if c.Batch.StaleAgeHours < 0 {
		return errors.New("batch.stale_age_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}
