package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/dexi-engine/internal/eval"
)

// Config holds the dexi engine configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Replay  ReplayConfig  `yaml:"replay"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig selects the default evaluation mode.
type EngineConfig struct {
	Semantics string `yaml:"semantics"` // set, prob, fuzzy
	Normalize bool   `yaml:"normalize"`
}

// StoreConfig locates the run database. An empty path disables persistence.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures `dexi serve`.
type ServerConfig struct {
	Addr        string            `yaml:"addr"`
	MetricsAddr string            `yaml:"metrics_addr"`
	Models      map[string]string `yaml:"models"` // model name -> .dxi path
}

// ReplayConfig bounds batch evaluation.
type ReplayConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// #region defaults
// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Semantics: eval.Set.String(),
			Normalize: true,
		},
		Store: StoreConfig{
			Path: "dexi_runs.db",
		},
		Server: ServerConfig{
			Addr:        "localhost:50061",
			MetricsAddr: "localhost:9091",
			Models:      map[string]string{},
		},
		Replay: ReplayConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
// #endregion defaults

// #region load-save
// Load reads a YAML file over the defaults. A missing file yields defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	// "models:" with no entries decodes to a nil map
	if cfg.Server.Models == nil {
		cfg.Server.Models = map[string]string{}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Store.Path = envOr("DEXI_DB", c.Store.Path)
	c.Server.Addr = envOr("DEXI_ADDR", c.Server.Addr)
	c.Server.MetricsAddr = envOr("DEXI_METRICS_ADDR", c.Server.MetricsAddr)
	c.Logging.Level = envOr("DEXI_LOG_LEVEL", c.Logging.Level)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion load-save

// #region validate
var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks enumerated fields and bounds.
func (c *Config) Validate() error {
	if _, err := eval.ParseSemantics(c.Engine.Semantics); err != nil {
		return fmt.Errorf("engine.semantics: %w", err)
	}
	if c.Replay.Concurrency < 1 {
		return fmt.Errorf("replay.concurrency must be at least 1, got %d", c.Replay.Concurrency)
	}
	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, l := range validLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, validLevels)
	}
	for name, path := range c.Server.Models {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("server.models[%s]: empty path", name)
		}
	}
	return nil
}

// EvalConfig converts the engine section into an evaluation config.
// Call Validate first; an unknown semantics falls back to SET.
func (c *Config) EvalConfig() eval.Config {
	sem, err := eval.ParseSemantics(c.Engine.Semantics)
	if err != nil {
		sem = eval.Set
	}
	return eval.Config{Semantics: sem, Normalize: c.Engine.Normalize}
}
// #endregion validate
