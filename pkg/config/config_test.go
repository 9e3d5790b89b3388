package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orinrun/orin/pkg/config"
)

func TestConfig_SetDefaults(t *testing.T) {
	var cfg config.Config
	cfg.SetDefaults()

	assert.Equal(t, "goja", cfg.Runtime.DefaultEngine)
	assert.Equal(t, 16, cfg.Runtime.MaxConcurrentScripts)
	assert.Equal(t, "memory", cfg.Runtime.StatePersistence.Backend)
	assert.Equal(t, "info", cfg.Debug.Level)
	assert.Equal(t, []string{"stdout"}, cfg.Debug.Outputs)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRejectsBadEngine(t *testing.T) {
	cfg := config.Config{Runtime: config.RuntimeConfig{DefaultEngine: "ruby", MaxConcurrentScripts: 1}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime:")
}

func TestProvidersConfig_RoundTripsDefaultAlongsideEntries(t *testing.T) {
	cfg, err := loadYAML(t, `
providers:
  default: anthropic
  anthropic:
    model: claude-sonnet-4-20250514
    api_key: secret
  openai:
    model: gpt-4o
`)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Providers.Default)
	require.Contains(t, cfg.Providers.Providers, "anthropic")
	require.Contains(t, cfg.Providers.Providers, "openai")
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Providers.Providers["anthropic"].Model)

	entry, ok := cfg.DefaultProvider()
	require.True(t, ok)
	assert.Equal(t, "secret", entry.APIKey)
}

func TestProvidersConfig_ValidateRejectsUnknownDefault(t *testing.T) {
	cfg := config.ProvidersConfig{Default: "missing", Providers: map[string]*config.ProviderEntry{}}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "unknown provider")
}

func TestRateLimitSpec_ParsesDurationStrings(t *testing.T) {
	cfg, err := loadYAML(t, `
hooks:
  rate_limit:
    budget: 0.5
    window: 5s
    cooldown: 1m
`)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Hooks.RateLimit.Budget)
	assert.Equal(t, "5s", cfg.Hooks.RateLimit.Window.String())
	assert.Equal(t, "1m0s", cfg.Hooks.RateLimit.Cooldown.String())
}

func TestLoader_LoadsFileAndExpandsEnv(t *testing.T) {
	t.Setenv("ORIN_TEST_API_KEY", "from-env")

	path := writeTempConfig(t, `
runtime:
  default_engine: goja
  max_concurrent_scripts: 4
providers:
  default: anthropic
  anthropic:
    model: claude-sonnet-4-20250514
    api_key: ${ORIN_TEST_API_KEY}
`)

	cfg, loader, err := config.LoadConfigFile(context.Background(), path)
	require.NoError(t, err)
	defer loader.Close()

	assert.Equal(t, 4, cfg.Runtime.MaxConcurrentScripts)
	entry, ok := cfg.DefaultProvider()
	require.True(t, ok)
	assert.Equal(t, "from-env", entry.APIKey)
}

func TestLoader_RejectsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, "runtime:\n  default_engine: ruby\n")

	_, _, err := config.LoadConfigFile(context.Background(), path)
	assert.ErrorContains(t, err, "validation failed")
}

func TestStore_GetAndSnapshot(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	store := config.NewStore(cfg)

	val, ok := store.GetValue("runtime.default_engine")
	require.True(t, ok)
	assert.Equal(t, "goja", val)

	snap := store.Snapshot()
	assert.Contains(t, snap, "debug")
}

func TestStore_SetValueRejectsNonDebugKeys(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	store := config.NewStore(cfg)

	err := store.SetValue("runtime.default_engine", "lua")
	assert.ErrorContains(t, err, "boot-locked")
}

func TestStore_SetValueMutatesDebugLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	store := config.NewStore(cfg)

	require.NoError(t, store.SetValue("debug.level", "trace"))
	val, ok := store.GetValue("debug.level")
	require.True(t, ok)
	assert.Equal(t, "trace", val)
}

func TestStore_RestoreRejectsBootLockedDrift(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	store := config.NewStore(cfg)

	snap := store.Snapshot()
	snap["runtime"] = map[string]any{"default_engine": "lua"}

	err := store.Restore(snap)
	assert.ErrorContains(t, err, "boot-locked")
}

func TestStore_RestoreAppliesDebugSection(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	store := config.NewStore(cfg)

	snap := store.Snapshot()
	require.NoError(t, store.SetValue("debug.level", "trace"))

	require.NoError(t, store.Restore(snap))
	val, _ := store.GetValue("debug.level")
	assert.Equal(t, "info", val)
}

// writeTempConfig writes doc to a temp file and returns its path.
func writeTempConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

// loadYAML routes doc through the real file-provider loader so custom
// YAML unmarshalers (ProvidersConfig, RateLimitSpec) are exercised the
// same way they are at runtime.
func loadYAML(t *testing.T, doc string) (*config.Config, error) {
	t.Helper()
	path := writeTempConfig(t, doc)
	cfg, loader, err := config.LoadConfigFile(context.Background(), path)
	if err != nil {
		return nil, err
	}
	defer loader.Close()
	return cfg, nil
}
