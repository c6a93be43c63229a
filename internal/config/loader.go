package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"authkit/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/authkit"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the user's authkit config directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory. The directory
// should contain config.yaml; a missing file yields the defaults, a malformed
// one is an error.
func LoadConfig(configPath string) (AuthkitConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return AuthkitConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return AuthkitConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// Validate checks that the loaded configuration carries everything the
// request pipeline needs to run.
func (c AuthkitConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.baseURL must be configured")
	}
	if c.Auth.TokenURL == "" {
		return errors.New("auth.tokenURL must be configured")
	}
	return nil
}
