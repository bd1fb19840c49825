// Package config loads the engine's .golog/config.yaml: backend
// selection, history watermark, the reasoner's Mangle fact store, run
// limits, and logging, mirroring the teacher's YAML-config-plus-
// env-override Load/Save idiom.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"golog/internal/logging"
)

// The two labels Config.Backend accepts (see the field's own comment:
// neither one changes which implementations cmd/golog constructs).
const (
	BackendReasoner = "reasoner"
	BackendSim      = "sim"
)

// Config holds the engine's full runtime configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Backend is a label recorded with a run and validated against the
	// two names the model currently recognizes ("reasoner", "sim").
	// cmd/golog always pairs reasoner.Factory with simplatform.Backend —
	// the only ast.Factory/platform.Backend implementations this module
	// provides — so the field does not yet select between alternatives;
	// it exists for the config shape a second platform.Backend
	// implementation would plug into.
	Backend string `yaml:"backend"`

	History HistoryConfig `yaml:"history"`
	Run     RunConfig     `yaml:"run"`
	Mangle  MangleConfig  `yaml:"mangle"`
	Logging LoggingConfig `yaml:"logging"`
}

// HistoryConfig configures the transition log's compaction behavior.
type HistoryConfig struct {
	// Watermark is the number of un-folded entries that triggers
	// ShouldProgress; <= 0 selects history.DefaultWatermark.
	Watermark int `yaml:"watermark"`
}

// RunConfig configures Context.Run's own bookkeeping.
type RunConfig struct {
	// DefaultTimeout bounds a single Run call; empty means no deadline
	// beyond the caller's own context.
	DefaultTimeout string `yaml:"default_timeout"`
	// SimActivityDuration is the synthetic completion duration the sim
	// backend uses for an activity with no per-grounding override.
	SimActivityDuration string `yaml:"sim_activity_duration"`
}

// DefaultConfig returns the engine's out-of-the-box configuration: the
// reasoner backend, the history package's own default watermark, and
// Mangle's production defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "golog",
		Version: "0.1.0",
		Backend: BackendReasoner,
		History: HistoryConfig{Watermark: 0},
		Run: RunConfig{
			DefaultTimeout:      "0s",
			SimActivityDuration: "50ms",
		},
		Mangle: MangleConfig{
			FactLimit:    100000,
			QueryTimeout: "30s",
			AutoEval:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file, falling back to
// DefaultConfig (plus environment overrides) if the file does not
// exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.Boot("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	logging.Boot("config loaded: backend=%s", cfg.Backend)
	return cfg, nil
}

// Save writes configuration to path as YAML, creating its directory if
// needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets GOLOG_BACKEND and GOLOG_MANGLE_SCHEMA override
// the loaded file without editing it.
func (c *Config) applyEnvOverrides() {
	if b := os.Getenv("GOLOG_BACKEND"); b != "" {
		c.Backend = b
	}
	if p := os.Getenv("GOLOG_MANGLE_SCHEMA"); p != "" {
		c.Mangle.SchemaPath = p
	}
}

// Validate rejects a configuration Context.Run could not act on.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendReasoner, BackendSim:
	default:
		return fmt.Errorf("config: unknown backend %q (want %q or %q)", c.Backend, BackendReasoner, BackendSim)
	}
	if _, err := c.GetRunTimeout(); err != nil {
		return fmt.Errorf("config: run.default_timeout: %w", err)
	}
	if _, err := c.GetQueryTimeout(); err != nil {
		return fmt.Errorf("config: mangle.query_timeout: %w", err)
	}
	if _, err := c.GetSimActivityDuration(); err != nil {
		return fmt.Errorf("config: run.sim_activity_duration: %w", err)
	}
	return nil
}

// GetRunTimeout parses Run.DefaultTimeout; "" or "0s" means no deadline.
func (c *Config) GetRunTimeout() (time.Duration, error) {
	if c.Run.DefaultTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Run.DefaultTimeout)
}

// GetQueryTimeout returns the reasoner's Mangle query timeout.
func (c *Config) GetQueryTimeout() (time.Duration, error) {
	if c.Mangle.QueryTimeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Mangle.QueryTimeout)
}

// GetSimActivityDuration returns the sim backend's default synthetic
// activity duration.
func (c *Config) GetSimActivityDuration() (time.Duration, error) {
	if c.Run.SimActivityDuration == "" {
		return 50 * time.Millisecond, nil
	}
	return time.ParseDuration(c.Run.SimActivityDuration)
}

// MangleEngineConfig translates the YAML-facing MangleConfig into the
// mangle.Config shape reasoner.New expects.
func (c *Config) MangleEngineConfig() (schemaPath, policyPath string, factLimit int, queryTimeoutSec int, autoEval bool, err error) {
	d, err := c.GetQueryTimeout()
	if err != nil {
		return "", "", 0, 0, false, err
	}
	return c.Mangle.SchemaPath, c.Mangle.PolicyPath, c.Mangle.FactLimit, int(d.Seconds()), c.Mangle.AutoEval, nil
}
