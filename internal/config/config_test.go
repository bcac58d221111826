package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloader/pkg/models"
)

func withConfigFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("RAGLOADER_CONFIG", path)
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	withConfigFile(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7272", cfg.API.URL)
	assert.Equal(t, 300, cfg.Upload.DelayMs)
	assert.Equal(t, "high", cfg.Upload.Quality)
	assert.Equal(t, 20, cfg.Filter.MaxFileSizeMB)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	withConfigFile(t)

	cfg := &models.Config{}
	cfg.Defaults()
	cfg.API.URL = "https://rag.internal:7272"
	cfg.API.Email = "dev@example.com"
	cfg.API.Password = "plain-secret"
	cfg.Upload.Quality = "fast"

	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://rag.internal:7272", loaded.API.URL)
	assert.Equal(t, "dev@example.com", loaded.API.Email)
	assert.Equal(t, "plain-secret", loaded.API.Password)
	assert.Equal(t, "fast", loaded.Upload.Quality)
}

func TestSaveEncryptsPasswordOnDisk(t *testing.T) {
	path := withConfigFile(t)

	cfg := &models.Config{}
	cfg.Defaults()
	cfg.API.Password = "hunter2"
	require.NoError(t, Save(cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")
	assert.Contains(t, string(raw), "ENC[")

	// Save must not mutate the caller's copy.
	assert.Equal(t, "hunter2", cfg.API.Password)
}

func TestEncryptDecryptPassword(t *testing.T) {
	encrypted, err := EncryptPassword("secret")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(encrypted))

	// Encrypting twice is a no-op.
	again, err := EncryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, encrypted, again)

	decrypted, err := DecryptPassword(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "secret", decrypted)
}

func TestDecryptPasswordPassesThroughPlaintext(t *testing.T) {
	got, err := DecryptPassword("not-encrypted")
	require.NoError(t, err)
	assert.Equal(t, "not-encrypted", got)
}

func TestGetConfigFileHonorsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv("RAGLOADER_CONFIG", path)
	assert.Equal(t, path, GetConfigFile())
}
