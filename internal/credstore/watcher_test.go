package credstore

import (
	"testing"
	"time"
)

func TestWatcher_RequiresFileBackedStore(t *testing.T) {
	store, err := NewStore(Config{FileMode: false})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := NewWatcher(store, nil); err == nil {
		t.Error("expected error for in-memory store")
	}
}

func TestWatcher_ReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(Config{StorageDir: dir, FileMode: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	changed := make(chan struct{}, 1)
	watcher, err := NewWatcher(store, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Simulate a second process logging in by writing through an
	// independent store over the same directory.
	external, err := NewStore(Config{StorageDir: dir, FileMode: true})
	if err != nil {
		t.Fatalf("NewStore (external) failed: %v", err)
	}
	if err := external.Set(Credentials{AccessToken: "external-access", RefreshToken: "external-refresh"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	if got := store.Get().AccessToken; got != "external-access" {
		t.Errorf("expected reloaded access token, got %q", got)
	}
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	store, err := NewStore(Config{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	watcher, err := NewWatcher(store, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err == nil {
		t.Error("expected error starting a running watcher")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	store, err := NewStore(Config{StorageDir: t.TempDir(), FileMode: true})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	watcher, err := NewWatcher(store, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	watcher.Stop()
	watcher.Stop()
}
