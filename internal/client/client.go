package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"authkit/internal/credstore"
	"authkit/internal/events"
	"authkit/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for outbound requests.
const DefaultHTTPTimeout = 30 * time.Second

// Refresher performs the coordinated refresh-token exchange.
// Implemented by refresh.Coordinator.
type Refresher interface {
	Refresh(ctx context.Context) (credstore.Credentials, error)
}

// CredentialReader provides the current token pair. Implemented by
// credstore.Store.
type CredentialReader interface {
	Get() credstore.Credentials
}

// FailureRouter receives classified failures and drives the logout path.
// Implemented by events.Router.
type FailureRouter interface {
	Report(class events.FailureClass, details map[string]interface{})
	TriggerLogout()
}

// Client is the authenticated request pipeline. It attaches the current
// bearer token to outbound calls, classifies failures, and runs the
// refresh-and-replay-once protocol on 401 responses.
//
// Dependencies are injected so tests can substitute fakes; the client never
// caches tokens itself, it re-reads the store for every attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      CredentialReader
	refresher  Refresher
	router     FailureRouter
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a request pipeline for the given base URL.
func NewClient(baseURL string, store CredentialReader, refresher Refresher, router FailureRouter, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		store:      store,
		refresher:  refresher,
		router:     router,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do executes one logical call through the pipeline.
//
// The current access token (if any) is attached as a bearer header; absence
// of a token is not an error, some endpoints are unauthenticated. On a 401
// the pipeline marks the request retried, runs the refresh coordinator, and
// replays the request exactly once with the new token. A 401 on the replay,
// or a refresh failure, ends the session: the logout path runs and
// ErrSessionExpired is returned. Every other failing class is reported and
// surfaced as a *RequestError without refresh or retry.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	// One ID per logical call, reused on the replay so both attempts
	// correlate in logs.
	requestID := uuid.NewString()

	for {
		resp, err := c.attempt(ctx, req, requestID)
		if err != nil {
			class := classifyError(err)
			c.router.Report(class, c.details(req, requestID, 0))
			return nil, &RequestError{Class: class, Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if req.retried {
				// The replayed request was rejected again; refreshing
				// another time cannot help.
				logging.Warn("RequestPipeline", "retried request rejected with 401, ending session (request_id=%s)", requestID)
				c.router.Report(events.FailureAuthExpired, c.details(req, requestID, resp.StatusCode))
				c.router.TriggerLogout()
				return nil, sessionExpiredError(resp.StatusCode)
			}

			req.retried = true
			logging.Debug("RequestPipeline", "401 received, refreshing credentials (request_id=%s)", requestID)

			if _, err := c.refresher.Refresh(ctx); err != nil {
				c.router.Report(events.FailureAuthInvalid, c.details(req, requestID, resp.StatusCode))
				c.router.TriggerLogout()
				return nil, sessionExpiredError(resp.StatusCode)
			}

			// Replay with the refreshed token; the next attempt re-reads
			// the store.
			continue
		}

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			c.router.Report(class, c.details(req, requestID, resp.StatusCode))
			return nil, &RequestError{Class: class, StatusCode: resp.StatusCode}
		}

		return resp, nil
	}
}

// attempt executes a single transport call with the current access token.
func (c *Client) attempt(ctx context.Context, req *Request, requestID string) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	if token := c.store.Get().AccessToken; token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logging.Debug("RequestPipeline", "%s %s -> %d (request_id=%s)", req.Method, path, httpResp.StatusCode, requestID)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// details builds the structured context attached to failure reports.
func (c *Client) details(req *Request, requestID string, statusCode int) map[string]interface{} {
	details := map[string]interface{}{
		"method":     req.Method,
		"path":       req.Path,
		"request_id": requestID,
	}
	if statusCode > 0 {
		details["status"] = statusCode
	}
	return details
}
