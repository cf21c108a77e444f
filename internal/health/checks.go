package health

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

// expiryWarning is how close to expiry a token is reported as degraded.
const expiryWarning = 24 * time.Hour

// ConfigChecker loads the config file.
type ConfigChecker struct {
	path string
}

func NewConfigChecker(path string) *ConfigChecker {
	return &ConfigChecker{path: path}
}

func (c *ConfigChecker) Name() string { return "config" }

func (c *ConfigChecker) Check(context.Context) *Result {
	cfg, err := config.Load(c.path)
	if err != nil {
		return Unhealthy(err.Error()).WithDetail("path", c.path)
	}
	return Healthy("configuration is valid").
		WithDetail("path", c.path).
		WithDetail("api_url", cfg.APIURL)
}

// StorageChecker writes, reads back and removes a probe key.
type StorageChecker struct {
	store storage.Local
}

func NewStorageChecker(store storage.Local) *StorageChecker {
	return &StorageChecker{store: store}
}

func (c *StorageChecker) Name() string { return "local-storage" }

const probeKey = "health.probe"

func (c *StorageChecker) Check(context.Context) *Result {
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.store.Set(probeKey, want); err != nil {
		return Unhealthy(fmt.Sprintf("write failed: %v", err))
	}
	defer func() { _ = c.store.Remove(probeKey) }()

	got, ok, err := c.store.Get(probeKey)
	switch {
	case err != nil:
		return Unhealthy(fmt.Sprintf("read failed: %v", err))
	case !ok || got != want:
		return Unhealthy("read back a different value")
	}
	return Healthy("read and write ok")
}

// Prober is the API call used to reach the server.
type Prober interface {
	BaseURL() string
	ListPermissions(ctx context.Context) ([]platform.Permission, error)
}

// APIChecker requests the permission catalogue. A 401 still proves the
// server is reachable.
type APIChecker struct {
	api Prober
}

func NewAPIChecker(api Prober) *APIChecker {
	return &APIChecker{api: api}
}

func (c *APIChecker) Name() string { return "club-api" }

func (c *APIChecker) Check(ctx context.Context) *Result {
	_, err := c.api.ListPermissions(ctx)
	var apiErr *platform.APIError
	switch {
	case err == nil:
		return Healthy("reachable").WithDetail("url", c.api.BaseURL())
	case platform.IsUnauthorized(err):
		return Healthy("reachable (not signed in)").WithDetail("url", c.api.BaseURL())
	case stderrors.As(err, &apiErr):
		return Degraded(fmt.Sprintf("server answered %d", apiErr.StatusCode)).
			WithDetail("url", c.api.BaseURL()).
			WithDetail("request_id", apiErr.RequestID)
	}
	return Unhealthy(err.Error()).WithDetail("url", c.api.BaseURL())
}

// SessionSource reads the stored session.
type SessionSource interface {
	Read() (*session.Session, bool)
}

// TokenSource reads a stored token and its expiry.
type TokenSource interface {
	Get(name string) (string, time.Time, bool)
}

// SessionChecker reports the stored session and access token lifetime.
type SessionChecker struct {
	sessions SessionSource
	tokens   TokenSource
	now      func() time.Time
}

func NewSessionChecker(sessions SessionSource, tokens TokenSource) *SessionChecker {
	return &SessionChecker{sessions: sessions, tokens: tokens, now: time.Now}
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(context.Context) *Result {
	sess, ok := c.sessions.Read()
	if !ok || sess.UserID == "" {
		return Degraded("not signed in")
	}
	_, exp, ok := c.tokens.Get(storage.CookieAccessToken)
	if !ok {
		return Degraded("access token missing or expired").WithDetail("user_id", sess.UserID)
	}

	res := Healthy("signed in")
	if left := exp.Sub(c.now()); left < expiryWarning {
		res = Degraded(fmt.Sprintf("access token expires in %s", left.Round(time.Minute)))
	}
	res.WithDetail("user_id", sess.UserID).
		WithDetail("role", sess.Role).
		WithDetail("expires", exp.UTC().Format(time.RFC3339))
	if sess.CurrentTeamID != "" {
		res.WithDetail("team_id", sess.CurrentTeamID)
	}
	return res
}
