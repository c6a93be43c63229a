package credstore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Config{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_GetEmpty(t *testing.T) {
	store := newTestStore(t)

	creds := store.Get()
	if !creds.IsZero() {
		t.Errorf("expected zero credentials, got: %+v", creds)
	}
}

func TestStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)

	want := Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := store.Set(want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := store.Get()
	if got.AccessToken != want.AccessToken {
		t.Errorf("access token = %q, want %q", got.AccessToken, want.AccessToken)
	}
	if got.RefreshToken != want.RefreshToken {
		t.Errorf("refresh token = %q, want %q", got.RefreshToken, want.RefreshToken)
	}
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(Config{StorageDir: dir, FileMode: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Set(Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A second store over the same directory simulates a process restart.
	reopened, err := NewStore(Config{StorageDir: dir, FileMode: true})
	if err != nil {
		t.Fatalf("NewStore (reopen) failed: %v", err)
	}

	got := reopened.Get()
	if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" {
		t.Errorf("expected persisted pair, got: %+v", got)
	}
}

func TestStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(Credentials{AccessToken: "access-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials file permissions = %o, want 0600", perm)
	}
}

func TestStore_ClearRemovesFile(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if !store.Get().IsZero() {
		t.Error("expected zero credentials after Clear")
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("expected credentials file to be removed, stat err: %v", err)
	}
}

func TestStore_ClearTwice(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(Credentials{AccessToken: "access-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("first Clear failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear should be a no-op, got: %v", err)
	}
}

func TestStore_CorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewStore(Config{StorageDir: dir, FileMode: true}); err == nil {
		t.Error("expected error for corrupt credentials file")
	}
}

func TestStore_InMemoryMode(t *testing.T) {
	store, err := NewStore(Config{FileMode: false})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := store.Set(Credentials{AccessToken: "access-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if store.Get().AccessToken != "access-1" {
		t.Error("expected in-memory pair to be readable")
	}
	if store.Path() != "" {
		t.Errorf("expected empty path in memory mode, got %q", store.Path())
	}
}

// TestStore_ConcurrentReadersNeverSeeTornPair hammers the store with writers
// that always store a matching pair and readers that assert the pair stays
// matched.
func TestStore_ConcurrentReadersNeverSeeTornPair(t *testing.T) {
	store, err := NewStore(Config{FileMode: false})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			pairs := []Credentials{
				{AccessToken: "access-a", RefreshToken: "refresh-a"},
				{AccessToken: "access-b", RefreshToken: "refresh-b"},
			}
			for j := 0; ; j++ {
				select {
				case <-stop:
					return
				default:
				}
				if err := store.Set(pairs[j%2]); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
			}
		}(i)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got := store.Get()
				suffixA := got.AccessToken == "access-a" && got.RefreshToken == "refresh-a"
				suffixB := got.AccessToken == "access-b" && got.RefreshToken == "refresh-b"
				if !got.IsZero() && !suffixA && !suffixB {
					t.Errorf("observed torn pair: %+v", got)
					return
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
