package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "plugins", cfg.PluginsDir)
	assert.Equal(t, "", cfg.TrustedKeysFile)
	assert.Equal(t, ".", cfg.OutputDir)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "PLUGINS_DIR=/opt/plugins\nOUTPUT_DIR=/tmp/out\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugkit.env"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/opt/plugins", cfg.PluginsDir)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "", cfg.TrustedKeysFile)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLUGKIT_TRUSTED_KEYS_FILE", "/etc/plugkit/keys")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/etc/plugkit/keys", cfg.TrustedKeysFile)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "plugins", cfg.PluginsDir)
}
