package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeGaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InnerGap = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDuplicateWorkspaceIDs(t *testing.T) {
	cfg := DefaultConfig()
	id := "7b6e3b2e-7e0a-4e0a-9c0a-000000000001"
	cfg.Workspaces = []WorkspaceDef{
		{ID: mustParseUUID(t, id), Name: "one"},
		{ID: mustParseUUID(t, id), Name: "two"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownLayoutKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = []WorkspaceDef{
		{ID: mustParseUUID(t, "7b6e3b2e-7e0a-4e0a-9c0a-000000000002"), Name: "one", Layout: "spiral"},
	}
	assert.Error(t, cfg.Validate())
}

func TestLoadFromPathMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DefaultLayout, cfg.DefaultLayout)
}

func TestLoadFromPathOverlaysOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "inner_gap: 20\ndefault_layout: vstack\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.InnerGap)
	assert.Equal(t, DefaultConfig().OuterGap, cfg.OuterGap)
}

func TestClassifyRulesReflectsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FloatingBundleIDs["org.example.picker"] = true
	rules := cfg.ClassifyRules()
	assert.True(t, rules.FloatingBundleIDs["org.example.picker"])
	assert.Equal(t, cfg.FloatingTitlePatterns, rules.FloatingTitlePatterns)
}

func TestSaveThenLoadFromPathRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.InnerGap = 12
	cfg.Workspaces = []WorkspaceDef{
		{ID: mustParseUUID(t, "7b6e3b2e-7e0a-4e0a-9c0a-000000000003"), Name: "main", MonitorID: 0, Layout: "bsp"},
	}

	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.InnerGap)
	require.Len(t, loaded.Workspaces, 1)
	assert.Equal(t, "main", loaded.Workspaces[0].Name)
}

func mustParseUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(s)
	require.NoError(t, err)
	return parsed
}
