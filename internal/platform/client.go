// Package platform is the client for the club management REST API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform/contract"
	"github.com/felixgeelhaar/clubhub/internal/version"
)

const apiPrefix = "/api/v1"

// Client is the club API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	pageSize   int
	validator  *contract.Validator
	metrics    *metrics.Metrics
	logger     *log.Logger

	mu             sync.RWMutex
	token          *oauth2.Token
	onUnauthorized func(error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets how often idempotent requests are retried and the delay between attempts.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryDelay = delay
	}
}

// WithPageSize sets the page size requested for paginated listings. Zero
// leaves it to the server.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithValidator sets the contract validator used for mutation payloads.
func WithValidator(v *contract.Validator) Option {
	return func(c *Client) { c.validator = v }
}

// NewClient creates a new API client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: 500 * time.Millisecond,
		validator:  contract.Default(),
		logger:     log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "platform")
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken sets the bearer token sent with authenticated requests.
func (c *Client) SetToken(tok *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
}

// SetAccessToken is a shorthand for SetToken with a bare access token.
func (c *Client) SetAccessToken(access string, expiry time.Time) {
	if access == "" {
		c.SetToken(nil)
		return
	}
	c.SetToken(&oauth2.Token{AccessToken: access, TokenType: "Bearer", Expiry: expiry})
}

// ClearToken drops the bearer token.
func (c *Client) ClearToken() {
	c.SetToken(nil)
}

// Token returns the current bearer token, or nil.
func (c *Client) Token() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a bearer token is set.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != nil && c.token.AccessToken != ""
}

// OnUnauthorized registers fn to run when an authenticated request is
// rejected with 401. Anonymous requests such as login never trigger it.
func (c *Client) OnUnauthorized(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// request describes one API call.
type request struct {
	method string
	route  string // path template relative to /api/v1, e.g. "/teams/{id}"
	params []string
	query  url.Values
	body   any
	out    any

	// anonymous requests carry no bearer token and never trigger OnUnauthorized.
	anonymous bool
	// silent requests carry the token but never trigger OnUnauthorized.
	silent bool
	// token overrides the client's bearer token.
	token *oauth2.Token
}

// do performs r, retrying idempotent requests, and returns the response status.
func (c *Client) do(ctx context.Context, r request) (int, error) {
	path, err := expand(r.route, r.params)
	if err != nil {
		return 0, err
	}

	var payload []byte
	if r.body != nil {
		payload, err = json.Marshal(r.body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	requestID := log.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := c.logger.With("method", r.method, "route", r.route, "request_id", requestID)

	attempts := 1
	if r.method == http.MethodGet {
		attempts += c.maxRetries
	}

	var (
		status  int
		lastErr error
		authed  bool
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.metrics.ObserveRetry(r.route)
			logger.Debug("retrying request", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return status, lastErr
			case <-time.After(c.retryDelay):
			}
		}

		var resp *http.Response
		resp, authed, err = c.send(ctx, r, path, payload, requestID)
		if err != nil {
			status, lastErr = 0, errors.NewAPIUnreachableError(c.baseURL, err)
			if ctx.Err() != nil {
				return 0, lastErr
			}
			continue
		}

		status = resp.StatusCode
		lastErr = parseResponse(resp, r.out, requestID)
		if lastErr == nil || status < 500 {
			break
		}
	}

	if lastErr != nil {
		logger.WithError(lastErr).Debug("request failed", "status", status)
	}
	if IsUnauthorized(lastErr) && authed && !r.silent {
		c.mu.RLock()
		fn := c.onUnauthorized
		c.mu.RUnlock()
		if fn != nil {
			fn(lastErr)
		}
	}
	return status, lastErr
}

// send performs a single HTTP round trip. authed reports whether a bearer token was attached.
func (c *Client) send(ctx context.Context, r request, path string, payload []byte, requestID string) (*http.Response, bool, error) {
	u := c.baseURL + apiPrefix + path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	authed := false
	if !r.anonymous {
		tok := r.token
		if tok == nil {
			tok = c.Token()
		}
		if tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
			authed = true
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(r.method, r.route, 0, time.Since(start))
		return nil, authed, err
	}
	c.metrics.ObserveRequest(r.method, r.route, resp.StatusCode, time.Since(start))
	return resp, authed, nil
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// parseResponse parses the response body into target, or returns an *APIError.
func parseResponse(resp *http.Response, target any, requestID string) error {
	defer resp.Body.Close()

	if id := resp.Header.Get("X-Request-ID"); id != "" {
		requestID = id
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
			RequestID:  requestID,
		}
	}

	if target == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrap(errors.ErrCodeAPIDecode, "failed to decode response", err)
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		for _, m := range []string{errResp.Error, errResp.Message, errResp.Detail} {
			if m != "" {
				return m
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

// expand substitutes params, in order, for the {placeholders} in route.
func expand(route string, params []string) (string, error) {
	var b strings.Builder
	rest := route
	for _, p := range params {
		open := strings.IndexByte(rest, '{')
		end := strings.IndexByte(rest, '}')
		if open < 0 || end < open {
			return "", fmt.Errorf("route %s: too many parameters", route)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(p))
		rest = rest[end+1:]
	}
	if strings.IndexByte(rest, '{') >= 0 {
		return "", fmt.Errorf("route %s: missing parameters", route)
	}
	b.WriteString(rest)
	return b.String(), nil
}

// validate checks v against the named contract schema.
func (c *Client) validate(schema string, v any) error {
	if c.validator == nil {
		return nil
	}
	if err := c.validator.Validate(schema, v); err != nil {
		return errors.NewValidationError(schema, err)
	}
	return nil
}
