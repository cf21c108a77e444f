package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/platform/platformtest"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

func TestResultBuilders(t *testing.T) {
	r := Degraded("slow").WithDetail("ms", 1200)
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, "slow", r.Message)
	assert.Equal(t, 1200, r.Details["ms"])
	assert.Equal(t, "unhealthy", Unhealthy("x").Status.String())
}

func TestConfigChecker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusHealthy, NewConfigChecker(dir+"/missing.yaml").Check(context.Background()).Status)

	t.Setenv("CLUBHUB_API_URL", "not a url")
	res := NewConfigChecker(dir + "/missing.yaml").Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
}

type brokenStore struct{ storage.Local }

func (brokenStore) Set(string, string) error { return assert.AnError }

func TestStorageChecker(t *testing.T) {
	store := storage.NewMemoryStore()
	res := NewStorageChecker(store).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	_, ok, _ := store.Get(probeKey)
	assert.False(t, ok, "probe key removed")

	res = NewStorageChecker(brokenStore{store}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "write failed")
}

func TestAPIChecker(t *testing.T) {
	srv := platformtest.New(t)
	c := platform.NewClient(srv.URL, platform.WithRetries(0, 0))

	res := NewAPIChecker(c).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, "reachable (not signed in)", res.Message)

	c.SetAccessToken(srv.IssueToken("u1"), time.Now().Add(time.Hour))
	assert.Equal(t, "reachable", NewAPIChecker(c).Check(context.Background()).Message)

	srv.Fail(http.MethodGet, "/api/v1/permissions", http.StatusServiceUnavailable, 0)
	assert.Equal(t, StatusDegraded, NewAPIChecker(c).Check(context.Background()).Status)
}

func TestAPICheckerUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	c := platform.NewClient(dead.URL, platform.WithRetries(0, 0))

	res := NewAPIChecker(c).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, dead.URL, res.Details["url"])
}

type fakeSessions struct{ sess *session.Session }

func (f fakeSessions) Read() (*session.Session, bool) { return f.sess, f.sess != nil }

type fakeTokens struct {
	exp time.Time
	ok  bool
}

func (f fakeTokens) Get(string) (string, time.Time, bool) { return "tok", f.exp, f.ok }

func TestSessionChecker(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	sess := &session.Session{UserID: "u1", Role: "coach", CurrentTeamID: "t1"}

	check := func(s SessionSource, tok TokenSource) *Result {
		c := NewSessionChecker(s, tok)
		c.now = func() time.Time { return now }
		return c.Check(context.Background())
	}

	res := check(fakeSessions{}, fakeTokens{})
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "not signed in", res.Message)

	res = check(fakeSessions{sess}, fakeTokens{})
	assert.Equal(t, StatusDegraded, res.Status)

	res = check(fakeSessions{sess}, fakeTokens{exp: now.Add(72 * time.Hour), ok: true})
	require.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, "t1", res.Details["team_id"])
	assert.Equal(t, "coach", res.Details["role"])

	res = check(fakeSessions{sess}, fakeTokens{exp: now.Add(90 * time.Minute), ok: true})
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "access token expires in 1h30m0s", res.Message)
}
