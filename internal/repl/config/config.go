// Package config provides configuration management for the kpsh REPL.
// It handles loading and parsing of the YAML configuration file and mapping
// its values to the Config struct.
package config

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/kpsh/internal/clipboard"
)

// GroupPlaceholder is replaced in the prompt template by the current group
// path.
const GroupPlaceholder = "{group}"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds all REPL configuration read from config.yaml.
type Config struct {
	// Prompt is the prompt template. {group} expands to the current group path.
	Prompt string `yaml:"prompt"`

	// LogLevel controls logging verbosity: debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`

	// Clipboard selects where copied values go: osc52 or system.
	Clipboard string `yaml:"clipboard"`

	// Color is auto, always or never.
	Color string `yaml:"color"`

	// Welcome shows the banner at startup.
	Welcome bool `yaml:"welcome"`

	History HistoryConfig `yaml:"history"`
}

// HistoryConfig controls persistent command history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Size is how many recent lines are loaded into the editor and printed
	// by the history command.
	Size int `yaml:"size"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Prompt:    "kpsh:" + GroupPlaceholder + "> ",
		LogLevel:  "info",
		Clipboard: clipboard.BackendOSC52,
		Color:     ColorAuto,
		Welcome:   true,
		History: HistoryConfig{
			Enabled: true,
			Size:    500,
		},
	}
}

// RenderPrompt expands the prompt template for the given group path. When no
// vault is open group is empty.
func (c *Config) RenderPrompt(group string) string {
	return strings.ReplaceAll(c.Prompt, GroupPlaceholder, group)
}

// validate resets every invalid field to its default and reports it.
func (c *Config) validate() []error {
	defaults := DefaultConfig()
	var errs []error

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logLevel must be one of debug, info, warn, error; got %q", c.LogLevel))
		c.LogLevel = defaults.LogLevel
	}

	switch c.Clipboard {
	case clipboard.BackendOSC52, clipboard.BackendSystem:
	default:
		errs = append(errs, fmt.Errorf("clipboard must be %s or %s; got %q", clipboard.BackendOSC52, clipboard.BackendSystem, c.Clipboard))
		c.Clipboard = defaults.Clipboard
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("color must be one of auto, always, never; got %q", c.Color))
		c.Color = defaults.Color
	}

	if c.History.Size <= 0 {
		errs = append(errs, fmt.Errorf("history.size must be positive; got %d", c.History.Size))
		c.History.Size = defaults.History.Size
	}

	return errs
}
