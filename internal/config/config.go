package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/curatord/curator/internal/selector"
)

// Config holds all curator configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Selection SelectionConfig `toml:"selection"`
}

type ServerConfig struct {
	Bind string `toml:"bind" validate:"required"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	Path string `toml:"path"` // empty = resolved at runtime via store.DefaultDBPath()
}

// SelectionConfig overrides global budget knobs from the config file.
// Zero values mean "keep the built-in default"; per-category budgets are
// tuned at runtime through the config API, not the file.
type SelectionConfig struct {
	TotalItemLimit       int     `toml:"total_item_limit" validate:"min=0"`
	TotalBudgetChars     int     `toml:"total_budget_chars" validate:"min=0"`
	RedundancyThreshold  float64 `toml:"redundancy_threshold" validate:"min=0,max=1"`
	TopicSaturationCap   int     `toml:"topic_saturation_cap" validate:"min=0"`
	TraceCapacity        int     `toml:"trace_capacity" validate:"min=0"`
	DefaultRetrievalQual float64 `toml:"default_retrieval_quality" validate:"min=0,max=1"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38811,
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Selection: SelectionConfig{
			DefaultRetrievalQual: 0.7,
		},
	}
}

// DefaultPath returns ~/.curator/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".curator", "config.toml"), nil
}

// Load reads a TOML config file and overlays it on the defaults. A
// missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints via struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Budget overlays the file's selection knobs on the selector's default
// budget. Cross-field consistency is checked by selector.New, not here.
func (c *Config) Budget() selector.BudgetConfig {
	b := selector.DefaultBudget()
	if c.Selection.TotalItemLimit > 0 {
		b.TotalItemLimit = c.Selection.TotalItemLimit
	}
	if c.Selection.TotalBudgetChars > 0 {
		b.TotalBudgetChars = c.Selection.TotalBudgetChars
	}
	if c.Selection.RedundancyThreshold > 0 {
		b.RedundancySimilarityThreshold = c.Selection.RedundancyThreshold
	}
	if c.Selection.TopicSaturationCap > 0 {
		b.TopicSaturationCap = c.Selection.TopicSaturationCap
	}
	return b
}

// TraceCapacity returns the configured run-history capacity, falling
// back to the selector's default when unset.
func (c *Config) TraceCapacity() int {
	if c.Selection.TraceCapacity > 0 {
		return c.Selection.TraceCapacity
	}
	return selector.DefaultTraceCapacity
}

// RetrievalQuality returns the configured default retrieval quality
// signal for selections that do not supply one.
func (c *Config) RetrievalQuality() float64 {
	if c.Selection.DefaultRetrievalQual > 0 {
		return c.Selection.DefaultRetrievalQual
	}
	return 0.7
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
