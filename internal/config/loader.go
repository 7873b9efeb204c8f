package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kvashchenko/windesk/internal/layout/strategy"
)

// rawConfig mirrors Config with pointer/omittable fields so a field absent
// from YAML can be told apart from one set to its zero value, the same
// raw-over-defaults idiom the rest of this package's ancestor used for its
// margins and grid settings.
type rawConfig struct {
	DefaultLayout         *string         `yaml:"default_layout"`
	InnerGap              *int            `yaml:"inner_gap"`
	OuterGap              *int            `yaml:"outer_gap"`
	FloatNewWindows       *bool           `yaml:"float_new_windows"`
	FloatingBundleIDs     []string        `yaml:"floating_bundle_ids"`
	FloatingTitlePatterns []string        `yaml:"floating_title_patterns"`
	Workspaces            []rawWorkspace  `yaml:"workspaces"`
	Hotkeys               map[string]string `yaml:"hotkeys"`
	LogLevel              *string         `yaml:"log_level"`
	Display               *string         `yaml:"display"`
	XAuthority            *string         `yaml:"xauthority"`
}

type rawWorkspace struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	MonitorID int    `yaml:"monitor_id"`
	Layout    string `yaml:"layout_kind"`
}

// DefaultConfigPath returns the settings file location, following the
// teacher's $HOME/.config/<app>/config.yaml convention.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "windesk", "config.yaml"), nil
}

// Load reads the settings file from its default location, falling back to
// DefaultConfig() entirely when the file doesn't exist.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and resolves the settings file at path against
// DefaultConfig(), validating the result before returning it.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if verr := cfg.Validate(); verr != nil {
				return nil, verr
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := applyRaw(cfg, raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyRaw overlays every field raw sets explicitly onto cfg, leaving
// DefaultConfig()'s values wherever raw is silent.
func applyRaw(cfg *Config, raw rawConfig) error {
	if raw.DefaultLayout != nil {
		cfg.DefaultLayout = strategy.ParseKind(*raw.DefaultLayout)
	}
	if raw.InnerGap != nil {
		cfg.InnerGap = *raw.InnerGap
	}
	if raw.OuterGap != nil {
		cfg.OuterGap = *raw.OuterGap
	}
	if raw.FloatNewWindows != nil {
		cfg.FloatNewWindows = *raw.FloatNewWindows
	}
	if raw.FloatingBundleIDs != nil {
		set := make(map[string]bool, len(raw.FloatingBundleIDs))
		for _, id := range raw.FloatingBundleIDs {
			set[id] = true
		}
		cfg.FloatingBundleIDs = set
	}
	if raw.FloatingTitlePatterns != nil {
		cfg.FloatingTitlePatterns = raw.FloatingTitlePatterns
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	for k, v := range raw.Hotkeys {
		if cfg.Hotkeys == nil {
			cfg.Hotkeys = HotkeyMap{}
		}
		cfg.Hotkeys[k] = v
	}
	if raw.Workspaces != nil {
		workspaces := make([]WorkspaceDef, 0, len(raw.Workspaces))
		for _, w := range raw.Workspaces {
			id, err := uuid.Parse(w.ID)
			if err != nil {
				return fmt.Errorf("workspace %q: invalid id %q: %w", w.Name, w.ID, err)
			}
			workspaces = append(workspaces, WorkspaceDef{
				ID:        id,
				Name:      w.Name,
				MonitorID: w.MonitorID,
				Layout:    w.Layout,
			})
		}
		cfg.Workspaces = workspaces
	}
	return nil
}

// Save writes cfg back out to path as YAML, used by the palette's
// save-current-layout affordance. It marshals through the same field
// shape rawConfig reads, so a round trip through LoadFromPath reproduces
// cfg exactly rather than silently dropping fields whose YAML key doesn't
// match what the loader expects.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	bundleIDs := make([]string, 0, len(cfg.FloatingBundleIDs))
	for id := range cfg.FloatingBundleIDs {
		bundleIDs = append(bundleIDs, id)
	}
	workspaces := make([]rawWorkspace, 0, len(cfg.Workspaces))
	for _, ws := range cfg.Workspaces {
		workspaces = append(workspaces, rawWorkspace{
			ID:        ws.ID.String(),
			Name:      ws.Name,
			MonitorID: ws.MonitorID,
			Layout:    ws.Layout,
		})
	}

	out := rawConfig{
		DefaultLayout:         strPtr(cfg.DefaultLayout.String()),
		InnerGap:              intPtr(cfg.InnerGap),
		OuterGap:              intPtr(cfg.OuterGap),
		FloatNewWindows:       boolPtr(cfg.FloatNewWindows),
		FloatingBundleIDs:     bundleIDs,
		FloatingTitlePatterns: cfg.FloatingTitlePatterns,
		Workspaces:            workspaces,
		Hotkeys:               cfg.Hotkeys,
		LogLevel:              strPtr(cfg.LogLevel),
		Display:               strPtr(cfg.Display),
		XAuthority:            strPtr(cfg.XAuthority),
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
