package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"authkit/pkg/logging"
)

// DefaultStorageDir is the default directory for persisted credentials,
// relative to the user's home directory. This follows XDG conventions.
const DefaultStorageDir = ".config/authkit"

// credentialsFileName is the file holding the persisted token pair.
const credentialsFileName = "credentials.json"

// Store holds the credentials for the single active session.
//
// It is the sole writer of the token pair: every mutation goes through Set or
// Clear, and a reader never observes a half-updated pair. In file mode the
// pair is persisted as a JSON file with 0600 permissions inside a 0700
// directory so credentials survive process restarts.
//
// SECURITY: token values are never logged, only their presence.
type Store struct {
	mu       sync.RWMutex
	filePath string
	fileMode bool
	creds    Credentials
}

// Config configures a credential Store.
type Config struct {
	// StorageDir is the directory for the credentials file.
	// Defaults to ~/.config/authkit.
	StorageDir string

	// FileMode enables file-based persistence. If false, credentials are
	// held in memory only (used in tests and ephemeral sessions).
	FileMode bool
}

// NewStore creates a credential store and, in file mode, loads any
// previously persisted pair. A missing file is not an error; an unreadable
// or corrupt file is, because silently dropping a persisted session would
// force a spurious re-login.
func NewStore(cfg Config) (*Store, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultStorageDir)
	}

	s := &Store{
		filePath: filepath.Join(storageDir, credentialsFileName),
		fileMode: cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create credential storage directory: %w", err)
		}
		if err := s.Reload(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Get returns the current credentials. The returned value is a copy; callers
// must not hold it beyond a single request attempt.
func (s *Store) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Set replaces the stored pair atomically and, in file mode, persists it.
// The in-memory pair is only updated after a successful write so the durable
// and cached state cannot diverge.
func (s *Store) Set(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileMode {
		if err := s.writeFileLocked(creds); err != nil {
			logging.Error("CredStore", err, "failed to persist credentials")
			return fmt.Errorf("failed to persist credentials: %w", err)
		}
	}

	s.creds = creds
	logging.Debug("CredStore", "credentials stored (refresh token: %t)", creds.HasRefreshToken())
	return nil
}

// Clear removes both tokens from memory and durable storage.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = Credentials{}

	if s.fileMode {
		err := os.Remove(s.filePath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Error("CredStore", err, "failed to remove credentials file")
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
	}

	logging.Debug("CredStore", "credentials cleared")
	return nil
}

// Reload re-reads the persisted pair into the in-memory cache. It is used at
// startup and by the file watcher when another process rewrites the file
// (for example a re-login in a second terminal). A no-op outside file mode.
func (s *Store) Reload() error {
	if !s.fileMode {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.creds = Credentials{}
			return nil
		}
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}

	s.creds = creds
	return nil
}

// Path returns the location of the credentials file. Empty outside file mode.
func (s *Store) Path() string {
	if !s.fileMode {
		return ""
	}
	return s.filePath
}

// writeFileLocked persists the pair with owner-only permissions.
// REQUIRES: s.mu must be held by the caller.
func (s *Store) writeFileLocked(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}
