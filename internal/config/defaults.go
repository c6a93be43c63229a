package config

import "time"

const (
	// DefaultAPITimeout is the default per-request timeout.
	DefaultAPITimeout = 30 * time.Second

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"
)

// GetDefaultConfig returns the default configuration. The API base URL and
// token URL have no sensible defaults and must come from the config file or
// flags.
func GetDefaultConfig() AuthkitConfig {
	return AuthkitConfig{
		API: APIConfig{
			Timeout: Duration(DefaultAPITimeout),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}
