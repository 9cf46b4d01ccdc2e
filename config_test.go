package datahub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeTempConfig(t, "hub.yaml", `
kbs_host_url: "https://kbs.example.com:8080"
socket: "/run/datahub.sock"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://kbs.example.com:8080", cfg.KBSHostURL)
	assert.Equal(t, DefaultRequestTimeoutSeconds, cfg.RequestTimeoutSeconds)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeTempConfig(t, "hub.toml", `
kbs_host_url = "https://kbs.example.com:8080"
socket = "/run/datahub.sock"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://kbs.example.com:8080", cfg.KBSHostURL)
}

func TestLoadConfigMissingKBSHostURL(t *testing.T) {
	path := writeTempConfig(t, "hub.yaml", `socket: "/run/datahub.sock"`)
	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidateRejectsDuplicateKMSProvider(t *testing.T) {
	cfg := &Config{
		KBSHostURL: "https://kbs.example.com",
		KMSDrivers: []KMSDriverConfig{
			{Provider: "aliyun", Command: "/usr/bin/aliyun-helper"},
			{Provider: "aliyun", Command: "/usr/bin/other-helper"},
		},
	}
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigUnsupportedExtension(t *testing.T) {
	path := writeTempConfig(t, "hub.json", `{}`)
	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
