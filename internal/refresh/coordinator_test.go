package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"authkit/internal/credstore"
)

func newTestStore(t *testing.T, creds credstore.Credentials) *credstore.Store {
	t.Helper()
	store, err := credstore.NewStore(credstore.Config{FileMode: false})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if !creds.IsZero() {
		if err := store.Set(creds); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	return store
}

// newTokenServer returns a token endpoint that counts exchanges and issues
// sequentially numbered access tokens.
func newTokenServer(t *testing.T, calls *atomic.Int32, delay time.Duration, rotate bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		time.Sleep(delay)

		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := r.PostFormValue("refresh_token"); got == "" {
			t.Error("expected refresh_token in exchange request")
		}

		resp := map[string]interface{}{
			"access_token": "new-access-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if rotate {
			resp["refresh_token"] = "rotated-refresh"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCoordinator_Refresh_NoToken(t *testing.T) {
	var calls atomic.Int32
	server := newTokenServer(t, &calls, 0, false)
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{AccessToken: "stale-access"})
	coordinator := NewCoordinator(store, server.URL)

	_, err := coordinator.Refresh(context.Background())
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Errorf("expected ErrNoRefreshToken, got: %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("expected zero exchange calls, got %d", got)
	}
}

func TestCoordinator_Refresh_SuccessRotatesTokens(t *testing.T) {
	var calls atomic.Int32
	server := newTokenServer(t, &calls, 0, true)
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{AccessToken: "stale-access", RefreshToken: "refresh-1"})
	coordinator := NewCoordinator(store, server.URL)

	creds, err := coordinator.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if creds.AccessToken != "new-access-1" {
		t.Errorf("access token = %q, want new-access-1", creds.AccessToken)
	}
	if creds.RefreshToken != "rotated-refresh" {
		t.Errorf("refresh token = %q, want rotated-refresh", creds.RefreshToken)
	}
	if creds.ExpiresAt.IsZero() {
		t.Error("expected expiry to be set from expires_in")
	}

	stored := store.Get()
	if stored.AccessToken != creds.AccessToken || stored.RefreshToken != creds.RefreshToken {
		t.Errorf("store not updated with refreshed pair: %+v", stored)
	}
}

func TestCoordinator_Refresh_KeepsRefreshTokenWithoutRotation(t *testing.T) {
	var calls atomic.Int32
	server := newTokenServer(t, &calls, 0, false)
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{RefreshToken: "refresh-1"})
	coordinator := NewCoordinator(store, server.URL)

	creds, err := coordinator.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if creds.RefreshToken != "refresh-1" {
		t.Errorf("refresh token = %q, want refresh-1 (kept)", creds.RefreshToken)
	}
}

func TestCoordinator_Refresh_RejectionClearsStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{AccessToken: "stale-access", RefreshToken: "refresh-1"})
	coordinator := NewCoordinator(store, server.URL)

	_, err := coordinator.Refresh(context.Background())

	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected ExchangeError, got: %v", err)
	}
	if exchangeErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", exchangeErr.StatusCode, http.StatusBadRequest)
	}
	if !store.Get().IsZero() {
		t.Error("expected store to be cleared after rejection")
	}
}

func TestCoordinator_Refresh_NetworkErrorClearsStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Deliberately unreachable.

	store := newTestStore(t, credstore.Credentials{RefreshToken: "refresh-1"})
	coordinator := NewCoordinator(store, server.URL)

	if _, err := coordinator.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for unreachable token endpoint")
	}
	if !store.Get().IsZero() {
		t.Error("expected store to be cleared after network failure")
	}
}

func TestCoordinator_Login_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		if got := r.PostFormValue("username"); got != "alice" {
			t.Errorf("username = %q, want alice", got)
		}
		if got := r.PostFormValue("password"); got != "secret" {
			t.Errorf("password not forwarded")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "login-access",
			"refresh_token": "login-refresh",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{})
	coordinator := NewCoordinator(store, server.URL)

	creds, err := coordinator.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if creds.AccessToken != "login-access" || creds.RefreshToken != "login-refresh" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if creds.ExpiresAt.IsZero() {
		t.Error("expected expiry to be set from expires_in")
	}
	if store.Get().AccessToken != "login-access" {
		t.Error("expected store to hold the new pair")
	}
}

func TestCoordinator_Login_RejectionKeepsExistingSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{AccessToken: "existing-access", RefreshToken: "existing-refresh"})
	coordinator := NewCoordinator(store, server.URL)

	_, err := coordinator.Login(context.Background(), "alice", "wrong")

	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected ExchangeError, got: %v", err)
	}
	if got := store.Get().AccessToken; got != "existing-access" {
		t.Errorf("a failed login must not disturb the existing session, store = %q", got)
	}
}

// TestCoordinator_Refresh_SingleFlight verifies that N concurrent callers
// share exactly one exchange and all observe the same resulting token.
func TestCoordinator_Refresh_SingleFlight(t *testing.T) {
	var calls atomic.Int32
	server := newTokenServer(t, &calls, 100*time.Millisecond, true)
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{RefreshToken: "refresh-1"})
	coordinator := NewCoordinator(store, server.URL)

	const n = 8
	results := make([]credstore.Credentials, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coordinator.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one exchange call, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if results[i].AccessToken != results[0].AccessToken {
			t.Errorf("caller %d got token %q, want %q", i, results[i].AccessToken, results[0].AccessToken)
		}
	}
}

// TestCoordinator_Refresh_NewFlightAfterResolution verifies the flight is
// discarded once resolved so a later refresh performs a new exchange.
func TestCoordinator_Refresh_NewFlightAfterResolution(t *testing.T) {
	var calls atomic.Int32
	server := newTokenServer(t, &calls, 0, true)
	defer server.Close()

	store := newTestStore(t, credstore.Credentials{RefreshToken: "refresh-1"})
	coordinator := NewCoordinator(store, server.URL)

	if _, err := coordinator.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}
	if _, err := coordinator.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("expected two exchange calls across two flights, got %d", got)
	}
}
