package config

import (
	"fmt"
	"strings"
)

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url must be set")
	}
	if strings.TrimSpace(c.Source.Release) == "" {
		return fmt.Errorf("source.release must be set")
	}
	if c.Load.BatchSize <= 0 {
		return fmt.Errorf("load.batch_size must be > 0 (got %d)", c.Load.BatchSize)
	}
	if c.Load.QueueSize < 0 {
		return fmt.Errorf("load.queue_size must be >= 0 (got %d)", c.Load.QueueSize)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console (got %q)", c.Log.Format)
	}
	return nil
}
