package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err, "explicit path must exist")
	assert.Nil(t, cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"provider": "openai",
		"model": "gpt-4o-mini",
		"openai_api_key": "sk-test",
		"max_tool_iterations": 3,
		"custom_denylist": ["format-volume"]
	}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 3, cfg.MaxToolIterations)
	assert.Equal(t, []string{"format-volume"}, cfg.CustomDenylist)
	// Untouched keys keep their defaults.
	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "interactive", cfg.TrustLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model": "from-file"}`), 0600))

	t.Setenv("LOBO_MODEL", "from-env")
	t.Setenv("LOBO_DEFAULT_TRUST_LEVEL", "auto")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, "auto", cfg.TrustLevel)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lobo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "lobo.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Model = "llama3.2:3b"
	cfg.TrustLevel = "auto"
	require.NoError(t, loader.Save(cfg))

	reloaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b", reloaded.Model)
	assert.Equal(t, "auto", reloaded.TrustLevel)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "/tmp/x.json", NewLoader("/tmp/x.json").GetConfigPath())
	assert.Contains(t, NewLoader("").GetConfigPath(), ".lobo")
}
