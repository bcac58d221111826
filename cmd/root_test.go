package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"load", "collections", "repos", "setup", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestResolveCredentialsPrefersExplicit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &models.Config{}
	cfg.API.Email = "config@example.com"
	cfg.API.Password = "config-pw"

	email, password, err := resolveCredentials(cfg, "flag@example.com", "flag-pw")
	require.NoError(t, err)
	assert.Equal(t, "flag@example.com", email)
	assert.Equal(t, "flag-pw", password)
}

func TestResolveCredentialsFallsBackToConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &models.Config{}
	cfg.API.Email = "config@example.com"
	cfg.API.Password = "config-pw"

	email, password, err := resolveCredentials(cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, "config@example.com", email)
	assert.Equal(t, "config-pw", password)
}

func TestResolveCredentialsMissingEverything(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAGLOADER_USE_KEYRING", "false")

	_, _, err := resolveCredentials(&models.Config{}, "", "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetErrorCode(err))
}

func TestLoadConfigAppliesEnvOverrides(t *testing.T) {
	t.Setenv("RAGLOADER_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("R2R_API_URL", "https://override:7272")
	t.Setenv("R2R_EMAIL", "env@example.com")
	initEnv()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://override:7272", cfg.API.URL)
	assert.Equal(t, "env@example.com", cfg.API.Email)
}
