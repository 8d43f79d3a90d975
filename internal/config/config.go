// Package config assembles runtime configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvDBPath        = "INSIGHT_DB"
	EnvListenAddr    = "INSIGHT_ADDR"
	EnvAxeScript     = "INSIGHT_AXE_SCRIPT"
	EnvLighthouseBin = "INSIGHT_LIGHTHOUSE_BIN"
	EnvNavTimeout    = "INSIGHT_NAV_TIMEOUT_MS"
)

// Config contains everything the server needs at startup.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":3001".
	ListenAddr string `yaml:"listen_addr"`

	// DBPath is the SQLite database path. Connecting fails fatally at startup
	// when the database cannot be opened.
	DBPath string `yaml:"db_path"`

	Scanner ScannerConfig `yaml:"scanner"`
}

// ScannerConfig configures the scanning engines.
type ScannerConfig struct {
	// AxeScriptPath points at an axe-core bundle (axe.min.js) to inject into
	// rendered pages. When empty the built-in heuristic rule engine runs
	// instead.
	AxeScriptPath string `yaml:"axe_script"`

	// LighthouseBin is the lighthouse CLI binary used by the audit engine.
	LighthouseBin string `yaml:"lighthouse_bin"`

	// NavigationTimeout bounds page navigation for one scan.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`

	// Headless disables the visible browser window. Always true in
	// production; tests may flip it.
	Headless bool `yaml:"headless"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		ListenAddr: ":3001",
		DBPath:     "insight.db",
		Scanner: ScannerConfig{
			LighthouseBin:     "lighthouse",
			NavigationTimeout: 30 * time.Second,
			Headless:          true,
		},
	}
}

// Load builds the effective config: defaults, then the YAML file at path
// (skipped when path is empty; missing file is an error), then environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Scanner.NavigationTimeout <= 0 {
		cfg.Scanner.NavigationTimeout = 30 * time.Second
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvAxeScript); v != "" {
		c.Scanner.AxeScriptPath = v
	}
	if v := os.Getenv(EnvLighthouseBin); v != "" {
		c.Scanner.LighthouseBin = v
	}
	if v := os.Getenv(EnvNavTimeout); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Scanner.NavigationTimeout = time.Duration(ms) * time.Millisecond
		}
	}
}
