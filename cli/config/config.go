package config

import (
	"fmt"

	"github.com/wikistats/revtally/log"
)

// Config represents a revtally.yaml configuration file.
// All values are optional and act as defaults for the command-line tokens.
// Tokens and flags always override config values; boolean tokens can only
// enable, never disable, what the config turned on.
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// ScanConfig holds scan defaults from the config file.
type ScanConfig struct {
	// All includes every namespace, not just main (0).
	All bool `yaml:"all"`
	// Batch aggregates that many consecutive pages per record; 0 disables.
	Batch int64 `yaml:"batch"`
	// Cutoff is the minimum revision count (exclusive) for emission.
	Cutoff int64 `yaml:"cutoff"`
}

// OutputConfig holds output field defaults from the config file.
type OutputConfig struct {
	Bytes     bool `yaml:"bytes"`
	MaxRevLen bool `yaml:"maxrevlen"`
	Title     bool `yaml:"title"`
	Concise   bool `yaml:"concise"`
}

// LogConfig holds diagnostics defaults from the config file.
type LogConfig struct {
	// Level is the stderr log level: debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Validate checks value ranges after decode. Field-name typos are already
// rejected by the strict decoder; this catches values that decode fine but
// make no sense.
func (c *Config) Validate() error {
	if c.Scan.Batch < 0 {
		return fmt.Errorf("scan.batch must not be negative, got %d", c.Scan.Batch)
	}
	if c.Scan.Cutoff < 0 {
		return fmt.Errorf("scan.cutoff must not be negative, got %d", c.Scan.Cutoff)
	}
	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}
