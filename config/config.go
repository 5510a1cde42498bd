// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — comparison driver run configuration
//
// Purpose:
//   - Holds every knob of one driver run: strategies, workload, sizing hints.
//   - Loads an optional JSON file over the defaults; CLI flags overlay last.
//
// Notes:
//   - Validate reports every problem at once, not just the first.
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"errors"
	"fmt"
	"os"

	"hashidx/constants"
	"hashidx/htable"

	"github.com/hashicorp/go-multierror"
	"github.com/sugawarayuuta/sonnet"
)

// Workload modes.
const (
	WorkloadSequential = "sequential"
	WorkloadShuffled   = "shuffled"
	WorkloadLabels     = "labels"
	WorkloadSQLite     = "sqlite"
)

// Config describes one driver run.
type Config struct {
	Strategies []string `json:"strategies"`
	Keys       int      `json:"keys"`
	Workload   string   `json:"workload"`
	Seed       int64    `json:"seed"`
	Prefix     string   `json:"prefix"`

	// Sizing hints; 0 selects the strategy default.
	Capacity int `json:"capacity"`
	Depth    int `json:"depth"`
	Modulus  int `json:"modulus"`

	Database string `json:"database"`
	Table    string `json:"table"`

	Misses    int    `json:"misses"`
	Immediate bool   `json:"immediate"`
	LogLevel  string `json:"log_level"`
	Dump      bool   `json:"dump"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		Strategies: []string{"openaddr", "exthash", "linhash"},
		Keys:       1234,
		Workload:   WorkloadSequential,
		Seed:       1,
		Prefix:     "key-",
		Table:      "pairs",
		Misses:     constants.DefaultMissProbes,
		LogLevel:   "info",
	}
}

// Load reads a JSON file over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Kinds resolves the configured strategy names.
func (c *Config) Kinds() ([]htable.Kind, error) {
	out := make([]htable.Kind, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		if s == "all" {
			return htable.Kinds, nil
		}
		k, err := htable.ParseKind(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// Hint returns the sizing hint that applies to kind.
func (c *Config) Hint(kind htable.Kind) int {
	switch kind {
	case htable.OpenAddressing:
		return c.Capacity
	case htable.Extendible:
		return c.Depth
	case htable.Linear:
		return c.Modulus
	}
	return 0
}

// Validate checks every field and aggregates all problems.
func (c *Config) Validate() error {
	var result *multierror.Error

	if len(c.Strategies) == 0 {
		result = multierror.Append(result, errors.New("no strategies selected"))
	} else if _, err := c.Kinds(); err != nil {
		result = multierror.Append(result, err)
	}

	switch c.Workload {
	case WorkloadSequential, WorkloadShuffled, WorkloadLabels:
		if c.Keys <= 0 {
			result = multierror.Append(result, fmt.Errorf("keys must be positive, got %d", c.Keys))
		}
	case WorkloadSQLite:
		if c.Database == "" {
			result = multierror.Append(result, errors.New("sqlite workload needs a database path"))
		}
		if c.Table == "" {
			result = multierror.Append(result, errors.New("sqlite workload needs a table name"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown workload %q", c.Workload))
	}

	if c.Capacity < 0 || c.Depth < 0 || c.Modulus < 0 {
		result = multierror.Append(result, errors.New("sizing hints must not be negative"))
	}
	if c.Capacity > constants.MaxInitialCapacity {
		result = multierror.Append(result, fmt.Errorf("capacity %d exceeds %d", c.Capacity, constants.MaxInitialCapacity))
	}
	if c.Depth > constants.MaxInitialDepth {
		result = multierror.Append(result, fmt.Errorf("depth %d exceeds %d", c.Depth, constants.MaxInitialDepth))
	}
	if c.Modulus > constants.MaxInitialModulus {
		result = multierror.Append(result, fmt.Errorf("modulus %d exceeds %d", c.Modulus, constants.MaxInitialModulus))
	}
	if c.Misses < 0 {
		result = multierror.Append(result, fmt.Errorf("misses must not be negative, got %d", c.Misses))
	}

	return result.ErrorOrNil()
}
