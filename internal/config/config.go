// Package config loads statusline settings from the global config file and
// an optional per-project .statuslinerc.
package config

import (
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the per-project override file, read from the session's
// working directory.
const ProjectFile = ".statuslinerc"

// Config holds all configurable statusline settings.
type Config struct {
	PlanLimit      int64            `json:"plan_limit" yaml:"plan_limit"`             // tokens per 5-hour window
	GitTimeoutMS   int              `json:"git_timeout_ms" yaml:"git_timeout_ms"`     // per git call
	UsageTimeoutMS int              `json:"usage_timeout_ms" yaml:"usage_timeout_ms"` // per usage-tool candidate
	UsageCommands  [][]string       `json:"usage_commands" yaml:"usage_commands"`
	IgnorePatterns []string         `json:"ignore_patterns" yaml:"ignore_patterns"`
	ContextLimits  map[string]int64 `json:"context_limits" yaml:"context_limits"` // model substring -> tokens
	DefaultFormat  string           `json:"default_format" yaml:"default_format"` // "ansi" | "json"
	ClaudeDir      string           `json:"claude_dir" yaml:"claude_dir"`
	NoColor        bool             `json:"no_color" yaml:"no_color"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		PlanLimit:      38_000_000,
		GitTimeoutMS:   1000,
		UsageTimeoutMS: 15000,
		DefaultFormat:  "ansi",
		IgnorePatterns: []string{},
		ContextLimits:  map[string]int64{},
	}
}

// GitTimeout is GitTimeoutMS as a duration.
func (c Config) GitTimeout() time.Duration {
	return time.Duration(c.GitTimeoutMS) * time.Millisecond
}

// UsageTimeout is UsageTimeoutMS as a duration.
func (c Config) UsageTimeout() time.Duration {
	return time.Duration(c.UsageTimeoutMS) * time.Millisecond
}

// Dir returns the statusline config directory, honouring $XDG_CONFIG_HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "statusline"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "statusline"), nil
}

// LoadGlobal reads config.json, or failing that config.yaml, from Dir().
// Returns defaults if neither file exists.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		cfg, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			return cfg, nil
		}
	}
	d := Defaults()
	return &d, nil
}

// LoadProject reads .statuslinerc in dir.
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*Config, error) {
	return loadFile(filepath.Join(dir, ProjectFile))
}

// loadFile parses path as YAML when it has a .yaml/.yml extension and as
// JSON otherwise. A missing file yields nil, nil.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults. Context limits merge key
// by key and NoColor is set if either layer sets it.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer != nil {
			apply(&result, layer)
		}
	}
	return result
}

func apply(dst *Config, src *Config) {
	if src.PlanLimit > 0 {
		dst.PlanLimit = src.PlanLimit
	}
	if src.GitTimeoutMS > 0 {
		dst.GitTimeoutMS = src.GitTimeoutMS
	}
	if src.UsageTimeoutMS > 0 {
		dst.UsageTimeoutMS = src.UsageTimeoutMS
	}
	if len(src.UsageCommands) > 0 {
		dst.UsageCommands = src.UsageCommands
	}
	if len(src.IgnorePatterns) > 0 {
		dst.IgnorePatterns = src.IgnorePatterns
	}
	if len(src.ContextLimits) > 0 {
		merged := maps.Clone(dst.ContextLimits)
		if merged == nil {
			merged = make(map[string]int64, len(src.ContextLimits))
		}
		maps.Copy(merged, src.ContextLimits)
		dst.ContextLimits = merged
	}
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ClaudeDir != "" {
		dst.ClaudeDir = src.ClaudeDir
	}
	if src.NoColor {
		dst.NoColor = true
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
