package app_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/app"
	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/platform/platformtest"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newServices(t *testing.T, srv *platformtest.Server) *app.Services {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.MaxRetries = 0
	cfg.PageSize = 0

	svc, err := app.New(cfg,
		app.WithLogger(log.Nop()),
		app.WithStorage(storage.NewMemoryStore(), storage.NewMemoryStore(), testSecret),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc
}

func signIn(t *testing.T, svc *app.Services) {
	t.Helper()
	_, err := svc.Auth.SignIn(context.Background(), platform.Credentials{
		Email: platformtest.CoachEmail, Password: platformtest.Password,
	})
	require.NoError(t, err)
}

func TestNewWithSQLite(t *testing.T) {
	srv := platformtest.New(t)
	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.Storage.Path = filepath.Join(t.TempDir(), "state.db")

	svc, err := app.New(cfg, app.WithLogger(log.Nop()))
	require.NoError(t, err)
	signIn(t, svc)
	require.NoError(t, svc.Close(context.Background()))
	assert.FileExists(t, filepath.Join(filepath.Dir(cfg.Storage.Path), "cookie.key"))

	// A second process sees the persisted session and token.
	again, err := app.New(cfg, app.WithLogger(log.Nop()))
	require.NoError(t, err)
	defer again.Close(context.Background())

	sess, err := again.Auth.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
	assert.True(t, again.API.HasToken())
}

func TestSwitchTeamRefreshesInParallel(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)
	signIn(t, svc)

	paths := []string{"/api/v1/teams/t2/players", "/api/v1/teams/t2/events", "/api/v1/teams/t2/staff"}
	var releases []func()
	for _, p := range paths {
		releases = append(releases, srv.Hold(p))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.SwitchTeam(context.Background(), "t2")
		assert.NoError(t, err)
	}()

	// All three requests are in flight before any of them is answered.
	require.Eventually(t, func() bool {
		for _, p := range paths {
			if srv.Count(http.MethodGet, p) != 1 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
	for _, release := range releases {
		release()
	}
	<-done

	assert.Equal(t, "t2", svc.Sessions.CurrentTeamID())
	assert.Len(t, svc.Stores.Players.Snapshot().Players, 1)
	assert.Len(t, svc.Stores.Events.Snapshot().Events, 1)
	assert.Len(t, svc.Stores.Staff.Snapshot().Staff, 1)
}

func TestSwitchTeamRequiresSession(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)

	_, err := svc.SwitchTeam(context.Background(), "t1")
	assert.Equal(t, errors.ErrCodeAuthRequired, errors.CodeOf(err))

	signIn(t, svc)
	_, err = svc.SwitchTeam(context.Background(), "")
	assert.Equal(t, errors.ErrCodeNoTeamSelected, errors.CodeOf(err))
}

func TestTeamID(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)
	signIn(t, svc)

	_, err := svc.TeamID("")
	assert.Equal(t, errors.ErrCodeNoTeamSelected, errors.CodeOf(err))

	id, err := svc.TeamID("t9")
	require.NoError(t, err)
	assert.Equal(t, "t9", id)

	_, err = svc.SwitchTeam(context.Background(), "t1")
	require.NoError(t, err)
	id, err = svc.TeamID("")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
}

func TestCapabilities(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)

	assert.Empty(t, svc.Capabilities().Granted(), "no session")
	signIn(t, svc)
	assert.Empty(t, svc.Capabilities().Granted(), "roles not loaded yet")

	caps, err := svc.LoadCapabilities(context.Background())
	require.NoError(t, err)
	assert.True(t, caps.CanCreateTeam)
	assert.True(t, caps.CanManagePlayer)
	assert.False(t, caps.CanManageRole)

	require.NoError(t, svc.Require(context.Background(), authz.ActionManage, authz.ResourcePlayer))
	err = svc.Require(context.Background(), authz.ActionCreate, authz.ResourceRole)
	assert.Equal(t, errors.ErrCodePermissionDenied, errors.CodeOf(err))
}

func TestCapabilitiesFailClosed(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)
	signIn(t, svc)
	srv.Fail(http.MethodGet, "/api/v1/groups/g1/roles", http.StatusInternalServerError, 0)

	caps, err := svc.LoadCapabilities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, caps.Granted())
}

func TestRequireAfterRejectedRolesFetch(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)
	signIn(t, svc)
	srv.Fail(http.MethodGet, "/api/v1/groups/g1/roles", http.StatusUnauthorized, 1)

	var err error
	require.NotPanics(t, func() {
		err = svc.Require(context.Background(), authz.ActionCreate, authz.ResourcePlayer)
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthExpired, errors.CodeOf(err))
	_, ok := svc.Sessions.Read()
	assert.False(t, ok)

	_, err = svc.LoadCapabilities(context.Background())
	assert.Equal(t, errors.ErrCodeAuthRequired, errors.CodeOf(err), "later calls see no session at all")
}

func TestContext(t *testing.T) {
	srv := platformtest.New(t)
	svc := newServices(t, srv)

	_, ok := app.FromContext(context.Background())
	assert.False(t, ok)

	got, ok := app.FromContext(app.NewContext(context.Background(), svc))
	require.True(t, ok)
	assert.Same(t, svc, got)
}
