// Package config loads the settings store's typed configuration and
// resolves it against defaults. The raw document uses pointer fields so a
// field absent from YAML is distinguishable from one explicitly set to its
// zero value; Load produces an effective Config with every field filled.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kvashchenko/windesk/internal/classify"
	"github.com/kvashchenko/windesk/internal/layout/strategy"
)

// WorkspaceDef is a persistent workspace definition from the settings
// store, mapped onto a monitor at startup.
type WorkspaceDef struct {
	ID        uuid.UUID `yaml:"id"`
	Name      string    `yaml:"name"`
	MonitorID int       `yaml:"monitor_id"`
	Layout    string    `yaml:"layout_kind"`
}

// Config is the effective, fully-resolved configuration the daemon runs
// with.
type Config struct {
	DefaultLayout         strategy.Kind
	InnerGap              int
	OuterGap              int
	FloatNewWindows       bool
	FloatingBundleIDs     map[string]bool
	FloatingTitlePatterns []string
	Workspaces            []WorkspaceDef

	Hotkeys  HotkeyMap
	LogLevel string

	Display    string
	XAuthority string
}

// HotkeyMap binds an X11 keybind string to an action name with an optional
// colon-separated payload, e.g. "Mod4-h": "focus_direction:left".
type HotkeyMap map[string]string

// DefaultConfig returns the built-in configuration used when no settings
// file is present or a field is left unset.
func DefaultConfig() *Config {
	return &Config{
		DefaultLayout:     strategy.BSP,
		InnerGap:          8,
		OuterGap:          8,
		FloatNewWindows:   false,
		FloatingBundleIDs: map[string]bool{},
		FloatingTitlePatterns: []string{
			"Picture-in-Picture",
			"Preferences",
		},
		LogLevel: "info",
		Hotkeys: HotkeyMap{
			"Mod4-h":       "focus_direction:left",
			"Mod4-l":       "focus_direction:right",
			"Mod4-k":       "focus_direction:up",
			"Mod4-j":       "focus_direction:down",
			"Mod4-Shift-h": "swap_direction:left",
			"Mod4-Shift-l": "swap_direction:right",
			"Mod4-Shift-k": "swap_direction:up",
			"Mod4-Shift-j": "swap_direction:down",
			"Mod4-space":   "toggle_float:",
			"Mod4-equal":   "equalize:",
			"Mod4-Tab":     "cycle_layout:",
		},
	}
}

var knownLayoutNames = map[string]bool{
	"float": true, "hstack": true, "vstack": true, "zstack": true, "bsp": true,
}

// Validate rejects a configuration that would make the layout engine
// misbehave in ways that are easy to catch up front rather than debug at
// reflow time.
func (c *Config) Validate() error {
	if c.InnerGap < 0 {
		return fmt.Errorf("inner_gap must be >= 0")
	}
	if c.OuterGap < 0 {
		return fmt.Errorf("outer_gap must be >= 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	seen := make(map[uuid.UUID]bool)
	for _, ws := range c.Workspaces {
		if ws.ID == uuid.Nil {
			return fmt.Errorf("workspace %q: id is required", ws.Name)
		}
		if seen[ws.ID] {
			return fmt.Errorf("workspace %q: duplicate id %s", ws.Name, ws.ID)
		}
		seen[ws.ID] = true
		if ws.Layout != "" {
			if _, ok := knownLayoutNames[strings.ToLower(ws.Layout)]; !ok {
				return fmt.Errorf("workspace %q: unknown layout_kind %q", ws.Name, ws.Layout)
			}
		}
	}
	return nil
}

// ClassifyRules extracts the classifier-relevant fields of c.
func (c *Config) ClassifyRules() classify.Rules {
	return classify.Rules{
		FloatNewWindows:       c.FloatNewWindows,
		FloatingBundleIDs:     c.FloatingBundleIDs,
		FloatingTitlePatterns: c.FloatingTitlePatterns,
	}
}
