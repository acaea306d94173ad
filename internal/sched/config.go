package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// TaskConfig describes one task the host creates at start-up.
type TaskConfig struct {
	ID           uint64 `yaml:"id"`
	Class        string `yaml:"class"`          // realtime, interactive, normal or daemon
	WorkMS       int64  `yaml:"work_ms"`        // total CPU time the task needs
	BlockEveryMS int64  `yaml:"block_every_ms"` // 0 = never blocks
}

// Config mirrors config.yml
type Config struct {
	Algorithm    string       `yaml:"algorithm"`      // "adv" (by default)
	TickMS       int          `yaml:"tick_ms"`        // 5 (by default)
	SliceTicks   int          `yaml:"slice_ticks"`    // 5 (by default)
	WakeTicks    int          `yaml:"wake_ticks"`     // 10 (by default)
	ExitWhenIdle bool         `yaml:"exit_when_idle"` // stop once every task has finished
	LogLevel     string       `yaml:"log_level"`
	CSVPath      string       `yaml:"csv_path"`
	MetricsAddr  string       `yaml:"metrics_addr"`
	Tasks        []TaskConfig `yaml:"tasks"`
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		Algorithm:  "adv",
		TickMS:     5,
		SliceTicks: 5,
		WakeTicks:  10,
		LogLevel:   "info",
	}
}

// Load reads YAML and overrides defaults; empty path or missing file =
// defaults only. A file that exists but does not parse is an error.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// sanity clamps
	if cfg.Algorithm == "" {
		cfg.Algorithm = "adv"
	}
	if cfg.SliceTicks <= 0 {
		cfg.SliceTicks = 5
	}
	if cfg.TickMS <= 0 {
		cfg.TickMS = 5
	}
	if cfg.WakeTicks <= 0 {
		cfg.WakeTicks = 10
	}

	for i, tc := range cfg.Tasks {
		if _, err := ParseClass(tc.Class); err != nil {
			return cfg, fmt.Errorf("task #%d: %w", i, err)
		}
	}
	return cfg, nil
}
