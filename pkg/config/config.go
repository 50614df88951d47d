// Package config handles loading and saving kb configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/kb/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/kanban/pkg/metrics"
	"github.com/vanderheijden86/kanban/pkg/model"
)

// DefaultRefreshInterval is how often stored due dates are re-formatted.
const DefaultRefreshInterval = time.Minute

// UIConfig holds board view preferences.
type UIConfig struct {
	RefreshInterval  time.Duration    `yaml:"refresh_interval,omitempty"`
	HighlightColumns []model.ColumnID `yaml:"highlight_columns,omitempty"` // Columns where due-soon cards glow
	Mouse            *bool            `yaml:"mouse,omitempty"`             // Mouse drag-and-drop (default on)
	DetailWidth      float64          `yaml:"detail_width,omitempty"`      // Detail panel share of width (0.2-0.6)
}

// BoardConfig controls where the initial dataset comes from.
type BoardConfig struct {
	SeedFile string `yaml:"seed_file,omitempty"`
}

// ExperimentalConfig holds experimental feature flags.
type ExperimentalConfig struct {
	WatchConfig *bool `yaml:"watch_config,omitempty"`
}

// Config is the top-level configuration for kb.
type Config struct {
	UI           UIConfig           `yaml:"ui,omitempty"`
	Board        BoardConfig        `yaml:"board,omitempty"`
	Experimental ExperimentalConfig `yaml:"experimental,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			RefreshInterval:  DefaultRefreshInterval,
			HighlightColumns: []model.ColumnID{model.ColumnTodo, model.ColumnInProgress},
			DetailWidth:      0.35,
		},
	}
}

// MouseEnabled reports whether mouse drag-and-drop is on.
func (c Config) MouseEnabled() bool {
	return c.UI.Mouse == nil || *c.UI.Mouse
}

// WatchEnabled reports whether the config file should be watched for edits.
func (c Config) WatchEnabled() bool {
	return c.Experimental.WatchConfig != nil && *c.Experimental.WatchConfig
}

// Highlights reports whether due-soon cards in col are highlighted.
func (c Config) Highlights(col model.ColumnID) bool {
	for _, id := range c.UI.HighlightColumns {
		if id == col {
			return true
		}
	}
	return false
}

// Normalize replaces out-of-range values with defaults and returns a
// warning for each replacement.
func (c *Config) Normalize() []string {
	def := DefaultConfig()
	var warnings []string

	if c.UI.RefreshInterval <= 0 {
		if c.UI.RefreshInterval < 0 {
			warnings = append(warnings, fmt.Sprintf("ui.refresh_interval %v is not positive, using %v", c.UI.RefreshInterval, def.UI.RefreshInterval))
		}
		c.UI.RefreshInterval = def.UI.RefreshInterval
	}

	if c.UI.HighlightColumns == nil {
		c.UI.HighlightColumns = def.UI.HighlightColumns
	} else {
		valid := c.UI.HighlightColumns[:0:0]
		for _, id := range c.UI.HighlightColumns {
			if !id.Valid() {
				warnings = append(warnings, fmt.Sprintf("ui.highlight_columns: unknown column %q ignored", id))
				continue
			}
			valid = append(valid, id)
		}
		c.UI.HighlightColumns = valid
	}

	if c.UI.DetailWidth == 0 {
		c.UI.DetailWidth = def.UI.DetailWidth
	} else if c.UI.DetailWidth < 0.2 || c.UI.DetailWidth > 0.6 {
		warnings = append(warnings, fmt.Sprintf("ui.detail_width %.2f outside 0.2-0.6, using %.2f", c.UI.DetailWidth, def.UI.DetailWidth))
		c.UI.DetailWidth = def.UI.DetailWidth
	}

	return warnings
}

// ConfigDir returns the XDG config directory for kb.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kb")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kb")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	defer metrics.Timer(metrics.ConfigLoad)()
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}

	cfg.Board.SeedFile = expandHome(cfg.Board.SeedFile)
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
