// Package config loads the authkit configuration from the user's config
// directory (~/.config/authkit/config.yaml by default). Missing files fall
// back to defaults; malformed files are errors.
package config
