package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"authkit/internal/credstore"
	"authkit/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for token-endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// ErrNoRefreshToken is returned when a refresh is requested but no refresh
// token exists in the credential store.
var ErrNoRefreshToken = errors.New("no refresh token available")

// ExchangeError indicates the token endpoint rejected the refresh exchange.
// A rejection invalidates the session: the store has been cleared by the
// time this error is returned.
type ExchangeError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token refresh rejected with status %d", e.StatusCode)
}

// tokenResponse is the token endpoint's response shape. The endpoint is a
// backend-owned contract; only the fields consumed here are declared.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Coordinator performs the refresh-token exchange against the configured
// token endpoint and keeps the credential store up to date.
//
// It enforces single-flight: when a refresh is already in progress,
// additional callers join the existing exchange and receive its result
// instead of redeeming the refresh token a second time. Most refresh-token
// schemes invalidate a refresh token on first use, so a duplicate concurrent
// redemption would fail.
type Coordinator struct {
	store      *credstore.Store
	httpClient *http.Client
	tokenURL   string

	// group deduplicates concurrent refresh exchanges.
	group singleflight.Group
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithHTTPClient sets a custom HTTP client for the token endpoint.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Coordinator) {
		c.httpClient = httpClient
	}
}

// NewCoordinator creates a refresh coordinator bound to the given store and
// token endpoint URL.
func NewCoordinator(store *credstore.Store, tokenURL string, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      store,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		tokenURL:   tokenURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Refresh exchanges the stored refresh token for a new access token.
//
// On success the new pair is written to the store and returned. On a missing
// refresh token it fails immediately with ErrNoRefreshToken without touching
// the network. On any exchange failure (network error or non-success status)
// the store is cleared and the error is returned, because the refresh token
// may have been consumed or revoked.
//
// Concurrent callers share one exchange; all of them observe its result
// before any of them proceeds. The flight is torn down once resolved, so a
// later 401 starts a fresh exchange.
func (c *Coordinator) Refresh(ctx context.Context) (credstore.Credentials, error) {
	result, err, shared := c.group.Do("refresh", func() (interface{}, error) {
		// A joiner abandoning its context must not cancel the exchange
		// for the other joiners; the HTTP client timeout bounds the
		// flight instead.
		return c.doRefresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return credstore.Credentials{}, err
	}

	if shared {
		logging.Debug("RefreshCoordinator", "joined in-flight refresh")
	}

	return result.(credstore.Credentials), nil
}

// Login performs the password grant against the token endpoint and persists
// the resulting pair. Unlike Refresh it never clears the store on failure: a
// failed login must not destroy an existing session.
func (c *Coordinator) Login(ctx context.Context, username, password string) (credstore.Credentials, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}

	resp, err := c.doTokenRequest(ctx, data)
	if err != nil {
		return credstore.Credentials{}, err
	}

	creds := credstore.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	if err := c.store.Set(creds); err != nil {
		return credstore.Credentials{}, fmt.Errorf("failed to store credentials: %w", err)
	}

	logging.Info("RefreshCoordinator", "login succeeded for %s (refresh token: %t)", username, creds.HasRefreshToken())
	return creds, nil
}

// doRefresh performs the actual token exchange. Runs at most once per flight.
func (c *Coordinator) doRefresh(ctx context.Context) (credstore.Credentials, error) {
	current := c.store.Get()
	if !current.HasRefreshToken() {
		return credstore.Credentials{}, ErrNoRefreshToken
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {current.RefreshToken},
	}

	resp, err := c.doTokenRequest(ctx, data)
	if err != nil {
		logging.Warn("RefreshCoordinator", "token refresh failed: %v", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			logging.Error("RefreshCoordinator", clearErr, "failed to clear credentials after refresh failure")
		}
		return credstore.Credentials{}, err
	}

	creds := credstore.Credentials{
		AccessToken: resp.AccessToken,
		// The endpoint may rotate the refresh token; keep the previous
		// one when it does not.
		RefreshToken: current.RefreshToken,
	}
	if resp.RefreshToken != "" {
		creds.RefreshToken = resp.RefreshToken
	}
	if resp.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	if err := c.store.Set(creds); err != nil {
		return credstore.Credentials{}, fmt.Errorf("failed to store refreshed credentials: %w", err)
	}

	logging.Info("RefreshCoordinator", "access token refreshed (rotated refresh token: %t)", resp.RefreshToken != "")
	return creds, nil
}

// doTokenRequest performs a form-encoded request against the token endpoint.
func (c *Coordinator) doTokenRequest(ctx context.Context, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExchangeError{StatusCode: resp.StatusCode}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response missing access_token")
	}

	return &token, nil
}
