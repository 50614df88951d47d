// Package hooks runs user commands around kb's board exports.
// Hooks are configured in hooks.yaml next to config.yaml and run before
// (pre-export) or after (post-export) a report is written.
package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the hooks file inside the config directory.
const FileName = "hooks.yaml"

// DefaultTimeout applies to hooks without a timeout.
const DefaultTimeout = 30 * time.Second

// on_error values.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// HookPhase is when a hook runs relative to the export.
type HookPhase string

const (
	PreExport  HookPhase = "pre-export"
	PostExport HookPhase = "post-export"
)

// A failing pre-export hook cancels the export unless told otherwise;
// post-export failures are only reported.
var defaultOnError = map[HookPhase]string{
	PreExport:  OnErrorFail,
	PostExport: OnErrorContinue,
}

// Hook is one shell command.
type Hook struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Timeout time.Duration     `yaml:"-"`
	Env     map[string]string `yaml:"env"`
	OnError string            `yaml:"on_error"`
}

// UnmarshalYAML accepts timeout as a duration ("5s") or plain seconds (5).
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type plain Hook
	var raw struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*h = Hook(raw.plain)
	if raw.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(raw.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	secs, err := strconv.ParseFloat(raw.Timeout, 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %q", raw.Timeout)
	}
	h.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}

// Config is the parsed hooks.yaml.
type Config struct {
	Hooks HooksByPhase `yaml:"hooks"`
}

// HooksByPhase lists hooks in run order.
type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export"`
	PostExport []Hook `yaml:"post-export"`
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// Load reads hooks.yaml from dir. A missing file, or an empty dir, yields
// an empty config. Hooks without a command are dropped with a warning.
func Load(dir string) (*Config, []string, error) {
	cfg := &Config{}
	if dir == "" {
		return cfg, nil, nil
	}
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var warnings []string
	cfg.Hooks.PreExport = normalize(cfg.Hooks.PreExport, PreExport, &warnings)
	cfg.Hooks.PostExport = normalize(cfg.Hooks.PostExport, PostExport, &warnings)
	return cfg, warnings, nil
}

func normalize(in []Hook, phase HookPhase, warnings *[]string) []Hook {
	var out []Hook
	for i, h := range in {
		n := i + 1
		if strings.TrimSpace(h.Command) == "" {
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d has no command; skipped", phase, n))
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, n)
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		switch h.OnError {
		case OnErrorFail, OnErrorContinue:
		case "":
			h.OnError = defaultOnError[phase]
		default:
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d: unknown on_error %q, using %q", phase, n, h.OnError, OnErrorFail))
			h.OnError = OnErrorFail
		}
		out = append(out, h)
	}
	return out
}

// ExportContext describes the export to hooks via KB_* environment variables.
type ExportContext struct {
	ExportPath   string // "-" for stdout
	ExportFormat string // "markdown" or "json"
	IssueCount   int
	DueSoon      int // highlighted issues due within the window
	Timestamp    time.Time
}

// ToEnv renders the context as KEY=value pairs.
func (c ExportContext) ToEnv() []string {
	return []string{
		"KB_EXPORT_PATH=" + c.ExportPath,
		"KB_EXPORT_FORMAT=" + c.ExportFormat,
		"KB_ISSUE_COUNT=" + strconv.Itoa(c.IssueCount),
		"KB_DUE_SOON=" + strconv.Itoa(c.DueSoon),
		"KB_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}
