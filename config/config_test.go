package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.Session.RenewThreshold)
	assert.Equal(t, time.Hour, cfg.Session.CheckInterval)
	assert.NotEmpty(t, cfg.Session.CredentialFile)
	assert.False(t, cfg.Client.Debug)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://games.example.org
  timeout: 5s
session:
  renew_threshold: 2h
client:
  debug: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://games.example.org", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Session.RenewThreshold)
	// Untouched keys keep their defaults.
	assert.Equal(t, time.Hour, cfg.Session.CheckInterval)
	assert.True(t, cfg.Client.Debug)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not: a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
