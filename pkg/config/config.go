// Package config loads the model engine's tunables from a YAML file with
// gopkg.in/yaml.v3; diskquota-coordinatord calls Load when it is given a
// config file path.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the per-database tunables a worker epoch loop consults
// (§6 configuration parameters, GUC analogues).
type Config struct {
	// DiskquotaNaptime is the sleep interval between epochs when a
	// worker is not actively draining (§4.7).
	DiskquotaNaptime time.Duration `yaml:"diskquotaNaptime"`

	// DiskquotaMaxActiveTables bounds the shared-memory active-table
	// map; once full, probes log a warning and drop new entries until
	// the next drain (§3, Non-goal-adjacent capacity limit).
	DiskquotaMaxActiveTables int `yaml:"diskquotaMaxActiveTables"`

	// MaxMonitoredDatabases bounds how many per-database workers the
	// launcher will start concurrently (§5).
	MaxMonitoredDatabases int `yaml:"maxMonitoredDatabases"`

	// RelationCacheCapacity bounds the LRU relation cache (§4.2).
	RelationCacheCapacity int `yaml:"relationCacheCapacity"`

	// BlocklistCapacity bounds the shared blocklist map (§4.5, §4.6).
	BlocklistCapacity int `yaml:"blocklistCapacity"`

	// WorkerTimeout is loaded and defaulted with the other tunables. No
	// component reads it: the worker and the fanout put no deadline of
	// their own on a segment fanout round.
	WorkerTimeout time.Duration `yaml:"workerTimeout"`
}

// Default returns the tunables used when no YAML file is supplied.
func Default() Config {
	return Config{
		DiskquotaNaptime:         2 * time.Second,
		DiskquotaMaxActiveTables: 1 << 20,
		MaxMonitoredDatabases:    10,
		RelationCacheCapacity:    1 << 16,
		BlocklistCapacity:        1 << 16,
		WorkerTimeout:            30 * time.Second,
	}
}

// Load reads and parses a YAML config file, applying Default() for any
// field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the tunables are usable; a worker launched with
// an invalid Config would never produce an epoch.
func (c Config) Validate() error {
	if c.DiskquotaNaptime <= 0 {
		return fmt.Errorf("diskquotaNaptime must be positive, got %s", c.DiskquotaNaptime)
	}
	if c.DiskquotaMaxActiveTables <= 0 {
		return fmt.Errorf("diskquotaMaxActiveTables must be positive, got %d", c.DiskquotaMaxActiveTables)
	}
	if c.MaxMonitoredDatabases <= 0 {
		return fmt.Errorf("maxMonitoredDatabases must be positive, got %d", c.MaxMonitoredDatabases)
	}
	if c.RelationCacheCapacity <= 0 {
		return fmt.Errorf("relationCacheCapacity must be positive, got %d", c.RelationCacheCapacity)
	}
	if c.BlocklistCapacity <= 0 {
		return fmt.Errorf("blocklistCapacity must be positive, got %d", c.BlocklistCapacity)
	}
	return nil
}
