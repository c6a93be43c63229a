package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that round-trips through YAML as a string
// ("30s", "2m") instead of nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// AuthkitConfig is the top-level configuration structure for authkit.
type AuthkitConfig struct {
	API  APIConfig  `yaml:"api"`
	Auth AuthConfig `yaml:"auth"`
	Log  LogConfig  `yaml:"log,omitempty"`
}

// APIConfig defines the target API the authenticated client talks to.
type APIConfig struct {
	BaseURL string   `yaml:"baseURL"`           // Base URL for all relative request paths
	Timeout Duration `yaml:"timeout,omitempty"` // Per-request timeout (default: 30s)
}

// AuthConfig defines the token endpoint and credential storage.
type AuthConfig struct {
	TokenURL   string `yaml:"tokenURL"`             // Token endpoint for password and refresh grants
	StorageDir string `yaml:"storageDir,omitempty"` // Credentials directory (default: ~/.config/authkit)
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level,omitempty"` // One of debug, info, warn, error (default: info)
}
