package credstore

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the access/refresh token pair for the active session.
// Both values are opaque strings owned by the backend. ExpiresAt is
// informational metadata (status display, oauth2 interop); it never gates a
// request, expiry is always detected via the server's 401 response.
type Credentials struct {
	// AccessToken is the bearer token attached to outbound requests.
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken is exchanged for a new access token when the latter
	// expires. May be absent for sessions that cannot be refreshed.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the access token expiry reported at issue time, if any.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// HasAccessToken reports whether an access token is present.
func (c Credentials) HasAccessToken() bool {
	return c.AccessToken != ""
}

// HasRefreshToken reports whether a refresh token is present.
func (c Credentials) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// IsZero reports whether the pair is empty (logged out).
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// ToOAuth2Token converts the credentials to an oauth2.Token for use with
// libraries built on golang.org/x/oauth2.
func (c Credentials) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.ExpiresAt,
	}
}

// storeTokenSource adapts a Store to oauth2.TokenSource so libraries built on
// golang.org/x/oauth2 can consume the stored session directly.
type storeTokenSource struct {
	store *Store
}

// Token implements oauth2.TokenSource. It re-reads the store on every call so
// a refresh performed elsewhere is picked up immediately.
func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	creds := ts.store.Get()
	if !creds.HasAccessToken() {
		return nil, errors.New("no access token stored")
	}
	return creds.ToOAuth2Token(), nil
}

// TokenSource returns an oauth2.TokenSource backed by this store.
func (s *Store) TokenSource() oauth2.TokenSource {
	return &storeTokenSource{store: s}
}
