package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"ragloader/internal/common"
)

const (
	// Keyring service name
	keyringService = "ragloader"
	// Name the API account credential is stored under
	apiCredentialName = "r2r-api"
	// Salt for key derivation
	saltSize = 32
	// Number of iterations for PBKDF2
	pbkdf2Iterations = 100000
	// Key size for AES-256
	keySize = 32
)

// CredentialManager stores secrets in the system keyring when one is
// available, falling back to AES-GCM encrypted files under the credentials
// directory with a machine-derived master key.
type CredentialManager struct {
	useKeyring bool
	baseDir    string
	masterKey  []byte
}

// Credential represents a stored credential
type Credential struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     string            `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Encrypted bool              `json:"encrypted"`
}

// NewCredentialManager creates a credential manager using the default
// credentials directory.
func NewCredentialManager() (*CredentialManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	cm := &CredentialManager{
		useKeyring: isKeyringAvailable(),
		baseDir:    filepath.Join(home, ".ragloader", "credentials"),
	}
	if !cm.useKeyring {
		if err := cm.initMasterKey(); err != nil {
			return nil, fmt.Errorf("failed to initialize master key: %w", err)
		}
	}
	return cm, nil
}

// NewFileCredentialManager creates a manager that always uses the
// encrypted-file store rooted at dir. Used by tests and headless hosts.
func NewFileCredentialManager(dir string) (*CredentialManager, error) {
	cm := &CredentialManager{useKeyring: false, baseDir: dir}
	if err := cm.initMasterKey(); err != nil {
		return nil, fmt.Errorf("failed to initialize master key: %w", err)
	}
	return cm, nil
}

// StoreAPICredentials records the ingestion account for later runs.
func (cm *CredentialManager) StoreAPICredentials(email, password string) error {
	return cm.StoreCredential(apiCredentialName, "password", password,
		map[string]string{"email": email})
}

// GetAPICredentials returns the stored ingestion account, if any.
func (cm *CredentialManager) GetAPICredentials() (email, password string, err error) {
	cred, err := cm.GetCredential(apiCredentialName)
	if err != nil {
		return "", "", err
	}
	return cred.Metadata["email"], cred.Value, nil
}

// StoreCredential securely stores a credential
func (cm *CredentialManager) StoreCredential(name, credType, value string, metadata map[string]string) error {
	if cm.useKeyring {
		return cm.storeInKeyring(name, credType, value, metadata)
	}
	return cm.storeEncrypted(name, credType, value, metadata)
}

// GetCredential retrieves a stored credential
func (cm *CredentialManager) GetCredential(name string) (*Credential, error) {
	if cm.useKeyring {
		return cm.getFromKeyring(name)
	}
	return cm.getEncrypted(name)
}

// DeleteCredential removes a stored credential
func (cm *CredentialManager) DeleteCredential(name string) error {
	if cm.useKeyring {
		return keyring.Delete(keyringService, name)
	}
	return os.Remove(cm.credentialPath(name))
}

// ListCredentials returns the names of the stored credentials.
func (cm *CredentialManager) ListCredentials() ([]string, error) {
	if cm.useKeyring {
		// Keyring doesn't support listing, so we maintain a separate index
		return cm.getCredentialIndex()
	}
	return cm.listEncrypted()
}

// Keyring storage methods

func (cm *CredentialManager) storeInKeyring(name, credType, value string, metadata map[string]string) error {
	cred := Credential{
		Name:     name,
		Type:     credType,
		Value:    value,
		Metadata: metadata,
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := keyring.Set(keyringService, name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return cm.updateCredentialIndex(name, true)
}

func (cm *CredentialManager) getFromKeyring(name string) (*Credential, error) {
	data, err := keyring.Get(keyringService, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return &cred, nil
}

// Encrypted file storage methods

func (cm *CredentialManager) storeEncrypted(name, credType, value string, metadata map[string]string) error {
	encrypted, err := cm.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	cred := Credential{
		Name:      name,
		Type:      credType,
		Value:     encrypted,
		Metadata:  metadata,
		Encrypted: true,
	}

	data, err := json.MarshalIndent(&cred, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cm.baseDir, 0700); err != nil {
		return err
	}

	path, err := common.ValidatePath(cm.credentialPath(name), cm.baseDir)
	if err != nil {
		return fmt.Errorf("invalid credential file path: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (cm *CredentialManager) getEncrypted(name string) (*Credential, error) {
	path, err := common.ValidatePath(cm.credentialPath(name), cm.baseDir)
	if err != nil {
		return nil, fmt.Errorf("invalid credential file path: %w", err)
	}
	data, err := os.ReadFile(path) // #nosec G304 - path is validated
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}

	if cred.Encrypted {
		decrypted, err := cm.decrypt(cred.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt credential: %w", err)
		}
		cred.Value = decrypted
		cred.Encrypted = false
	}

	return &cred, nil
}

func (cm *CredentialManager) listEncrypted() ([]string, error) {
	entries, err := os.ReadDir(cm.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".cred") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".cred"))
		}
	}
	return names, nil
}

// Encryption methods

func (cm *CredentialManager) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(cm.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (cm *CredentialManager) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(cm.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, encryptedData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// Helper methods

func (cm *CredentialManager) initMasterKey() error {
	keyPath := filepath.Join(cm.baseDir, ".master")

	data, err := os.ReadFile(keyPath) // #nosec G304 - path within credentials dir
	if err == nil {
		if len(data) != saltSize+keySize {
			return fmt.Errorf("invalid master key file size")
		}
		cm.masterKey = data[saltSize:]
		return nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return err
	}

	key := pbkdf2.Key([]byte(getMachineID()), salt, pbkdf2Iterations, keySize, sha256.New)

	if err := os.MkdirAll(cm.baseDir, 0700); err != nil {
		return err
	}
	if err := os.WriteFile(keyPath, append(salt, key...), 0600); err != nil {
		return err
	}

	cm.masterKey = key
	return nil
}

func (cm *CredentialManager) credentialPath(name string) string {
	return filepath.Join(cm.baseDir, name+".cred")
}

func (cm *CredentialManager) getCredentialIndex() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(cm.baseDir, ".index"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var index []string
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (cm *CredentialManager) updateCredentialIndex(name string, add bool) error {
	index, err := cm.getCredentialIndex()
	if err != nil {
		return err
	}

	found := false
	newIndex := make([]string, 0, len(index)+1)
	for _, n := range index {
		if n == name {
			found = true
			if add {
				newIndex = append(newIndex, n)
			}
		} else {
			newIndex = append(newIndex, n)
		}
	}
	if add && !found {
		newIndex = append(newIndex, name)
	}

	data, err := json.Marshal(newIndex)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cm.baseDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cm.baseDir, ".index"), data, 0600)
}

// Platform-specific helpers

func isKeyringAvailable() bool {
	// Allow forcing the file fallback on hosts with broken keyring daemons.
	if os.Getenv("RAGLOADER_USE_KEYRING") == "false" {
		return false
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	case "linux":
		// Check if a supported keyring backend is available
		if os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "" {
			return true
		}
	}
	return false
}

func getMachineID() string {
	hostname, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}

	data := fmt.Sprintf("%s-%s-%s-%s", hostname, user, runtime.GOOS, runtime.GOARCH)
	hash := sha256.Sum256([]byte(data))
	return base64.StdEncoding.EncodeToString(hash[:])
}
