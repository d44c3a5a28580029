package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobo-cli/lobo/internal/config"
)

func TestConfigureCmd_SavesConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "lobo.json")
	t.Cleanup(func() { cfgFile = "" })

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"configure", "--config", configPath})
	cmd.SetIn(strings.NewReader("\n\n\n\n\n"))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Configuration saved to: "+configPath)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	saved, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "ollama", saved.Provider)
	assert.Equal(t, "interactive", saved.TrustLevel)
}

func TestConfigureCmd_InvalidInputFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "lobo.json")
	t.Cleanup(func() { cfgFile = "" })

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"configure", "--config", configPath})
	// Input ends while the wizard still needs an API key.
	cmd.SetIn(strings.NewReader("anthropic\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration failed")

	_, statErr := os.Stat(configPath)
	assert.True(t, os.IsNotExist(statErr))
}
