package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileManager(t *testing.T) *CredentialManager {
	t.Helper()

	cm, err := NewFileCredentialManager(filepath.Join(t.TempDir(), "credentials"))
	require.NoError(t, err)
	return cm
}

func TestFileStoreRoundTrip(t *testing.T) {
	cm := newFileManager(t)

	require.NoError(t, cm.StoreCredential("test-cred", "password", "s3cret",
		map[string]string{"email": "dev@example.com"}))

	cred, err := cm.GetCredential("test-cred")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cred.Value)
	assert.Equal(t, "dev@example.com", cred.Metadata["email"])
	assert.False(t, cred.Encrypted)
}

func TestStoredValueIsNotPlaintextOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "credentials")
	cm, err := NewFileCredentialManager(dir)
	require.NoError(t, err)

	require.NoError(t, cm.StoreCredential("api", "password", "hunter2", nil))

	raw, err := os.ReadFile(filepath.Join(dir, "api.cred"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")
}

func TestAPICredentialsRoundTrip(t *testing.T) {
	cm := newFileManager(t)

	require.NoError(t, cm.StoreAPICredentials("dev@example.com", "pw-123"))

	email, password, err := cm.GetAPICredentials()
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", email)
	assert.Equal(t, "pw-123", password)
}

func TestDeleteCredential(t *testing.T) {
	cm := newFileManager(t)

	require.NoError(t, cm.StoreCredential("gone", "password", "x", nil))
	require.NoError(t, cm.DeleteCredential("gone"))

	_, err := cm.GetCredential("gone")
	require.Error(t, err)
}

func TestListCredentials(t *testing.T) {
	cm := newFileManager(t)

	require.NoError(t, cm.StoreCredential("one", "password", "a", nil))
	require.NoError(t, cm.StoreCredential("two", "password", "b", nil))

	names, err := cm.ListCredentials()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, names)
}

func TestMasterKeyPersistsAcrossManagers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "credentials")

	first, err := NewFileCredentialManager(dir)
	require.NoError(t, err)
	require.NoError(t, first.StoreCredential("persist", "password", "value", nil))

	// A fresh manager over the same directory must decrypt with the same key.
	second, err := NewFileCredentialManager(dir)
	require.NoError(t, err)
	cred, err := second.GetCredential("persist")
	require.NoError(t, err)
	assert.Equal(t, "value", cred.Value)
}
