package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ragloader/internal/common"
	"ragloader/pkg/models"
)

// GetConfigPath returns the configuration directory.
func GetConfigPath() string {
	// Check for environment variable first
	if configPath := os.Getenv("RAGLOADER_CONFIG"); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ragloader")
}

// GetConfigFile returns the configuration file path.
func GetConfigFile() string {
	// Check for environment variable first
	if configFile := os.Getenv("RAGLOADER_CONFIG"); configFile != "" {
		// Validate the path to prevent directory traversal
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Load reads the configuration file and fills in defaults. A missing file is
// not an error; the defaults apply.
func Load() (*models.Config, error) {
	configFile := GetConfigFile()

	cleanedPath, err := common.CleanPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	var config models.Config
	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		config.Defaults()
		return &config, nil
	}

	data, err := os.ReadFile(cleanedPath) // #nosec G304 - path is validated
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := DecryptConfigPasswords(&config); err != nil {
		return nil, err
	}

	config.Defaults()
	return &config, nil
}

// Save writes the configuration file, encrypting the stored password.
func Save(config *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	toSave := *config
	if err := EncryptConfigPasswords(&toSave); err != nil {
		return err
	}

	data, err := yaml.Marshal(&toSave)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists reports whether a configuration file is present.
func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}
