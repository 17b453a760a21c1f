package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesYAMLFileBeforeEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_name: from-yaml\nport: 9091\nbrowser_headless: false\n"), 0o600))

	t.Setenv("EOL_CONFIG_FILE", path)
	t.Setenv("EOL_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.ServiceName)
	assert.Equal(t, 9091, cfg.Port)
	assert.False(t, cfg.BrowserHeadless)
}

func TestLoadEnvOverridesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9091\n"), 0o600))

	t.Setenv("EOL_CONFIG_FILE", path)
	t.Setenv("EOL_PORT", "9500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9500, cfg.Port, "an explicit environment variable should win over the file")
}

func TestLoadWithoutConfigFileEnvUsesDefaults(t *testing.T) {
	t.Setenv("EOL_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().ServiceName, cfg.ServiceName)
}

func TestLoadReturnsErrorForUnreadableConfigFile(t *testing.T) {
	t.Setenv("EOL_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())
}
