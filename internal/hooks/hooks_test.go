package hooks_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/hooks"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/platform/platformtest"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/state"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

type fixture struct {
	srv     *platformtest.Server
	stores  *state.Stores
	session *session.Store
	scope   *hooks.Scope
}

func newFixture(t *testing.T, sess *session.Session) *fixture {
	t.Helper()
	srv := platformtest.New(t)
	c := platform.NewClient(srv.URL, platform.WithLogger(log.Nop()), platform.WithRetries(0, 0))
	c.SetAccessToken(srv.IssueToken("u1"), time.Now().Add(time.Hour))

	store := session.NewStore(storage.NewMemoryStore(), log.Nop())
	if sess != nil {
		_, err := store.Write(session.FromSession(*sess))
		require.NoError(t, err)
	}
	stores := state.NewStores(c, nil, log.Nop())
	return &fixture{
		srv:     srv,
		stores:  stores,
		session: store,
		scope:   hooks.NewScope(stores, store, log.Nop()),
	}
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

var coach = &session.Session{UserID: "u1", Role: "coach", GroupID: platformtest.GroupID, CurrentTeamID: "t1"}

func TestUsePlayersFallsBackToCurrentTeam(t *testing.T) {
	f := newFixture(t, coach)

	h := f.scope.UsePlayers(ctx(t), "")
	defer h.Close()

	_, err := h.Wait(ctx(t))
	require.NoError(t, err)
	assert.NoError(t, h.Err())
	assert.Len(t, h.Players(), 5)
	assert.False(t, h.Loading())
	assert.Equal(t, 3, f.srv.Count(http.MethodGet, "/api/v1/teams/t1/players"))
}

func TestUseTeamsFallsBackToGroup(t *testing.T) {
	f := newFixture(t, coach)

	h := f.scope.UseTeams(ctx(t), "")
	defer h.Close()

	_, err := h.Wait(ctx(t))
	require.NoError(t, err)
	assert.Len(t, h.Teams(), 2)
}

func TestMissingParameterSurfacesError(t *testing.T) {
	f := newFixture(t, nil)

	h := f.scope.UseEvents(ctx(t), "")
	defer h.Close()

	snap, err := h.Wait(ctx(t))
	require.NoError(t, err)
	assert.Nil(t, snap.Events)
	assert.EqualError(t, h.Err(), "No team found")
	assert.Empty(t, f.srv.Requests())
}

func TestSetParamsRefetchesOnlyOnChange(t *testing.T) {
	f := newFixture(t, coach)
	c := ctx(t)

	h := f.scope.UseStaff(c, "t1")
	defer h.Close()
	_, err := h.Wait(c)
	require.NoError(t, err)

	assert.False(t, h.SetParams("t1"))
	assert.True(t, h.SetParams("t2"))
	_, err = h.Wait(c)
	require.NoError(t, err)

	require.Len(t, h.Staff(), 1)
	assert.Equal(t, "s2", h.Staff()[0].ID)
	assert.Equal(t, 1, f.srv.Count(http.MethodGet, "/api/v1/teams/t1/staff"))
	assert.Equal(t, 1, f.srv.Count(http.MethodGet, "/api/v1/teams/t2/staff"))
}

func TestCloseUnsubscribes(t *testing.T) {
	f := newFixture(t, coach)

	h := f.scope.UseEvents(ctx(t), "t1")
	_, err := h.Wait(ctx(t))
	require.NoError(t, err)
	assert.Equal(t, 1, f.stores.Events.SubscriberCount())

	h.Close()
	h.Close()
	assert.Equal(t, 0, f.stores.Events.SubscriberCount())

	for range h.Updates() {
	}
	assert.False(t, h.SetParams("t2"), "closed hooks do not refetch")
}

func TestCloseDoesNotCancelInFlightFetch(t *testing.T) {
	f := newFixture(t, coach)
	release := f.srv.Hold("/api/v1/teams/t2/events")

	h := f.scope.UseEvents(ctx(t), "t2")
	require.Eventually(t, func() bool {
		return f.srv.Count(http.MethodGet, "/api/v1/teams/t2/events") == 1
	}, time.Second, 5*time.Millisecond)
	h.Close()
	release()

	require.Eventually(t, func() bool {
		return len(f.stores.Events.Snapshot().Events) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestUpdatesDeliverSnapshots(t *testing.T) {
	f := newFixture(t, coach)

	h := f.scope.UseLogs(ctx(t), "")
	defer h.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-h.Updates():
			if !snap.Loading {
				assert.Len(t, snap.Logs, 1)
				return
			}
		case <-deadline:
			t.Fatal("no settled snapshot delivered")
		}
	}
}

func TestUsePerformancesModes(t *testing.T) {
	f := newFixture(t, coach)
	c := ctx(t)

	h := f.scope.UsePerformances(c, "e1", "")
	defer h.Close()
	_, err := h.Wait(c)
	require.NoError(t, err)
	assert.Len(t, h.Performances(), 3)
	assert.Equal(t, 2, h.Summary().Goals)

	require.True(t, h.SetParams("e1", "p3"))
	_, err = h.Wait(c)
	require.NoError(t, err)
	require.NotNil(t, h.Performance())
	assert.Equal(t, 2, h.Performance().Assists)

	require.True(t, h.SetParams("", ""))
	_, err = h.Wait(c)
	require.NoError(t, err)
	assert.EqualError(t, h.Err(), "No player found")
}

func TestUseRolesLoadsCatalogue(t *testing.T) {
	f := newFixture(t, coach)

	h := f.scope.UseRoles(ctx(t), "")
	defer h.Close()
	_, err := h.Wait(ctx(t))
	require.NoError(t, err)

	assert.Len(t, h.Roles(), 2)
	assert.Len(t, h.Permissions(), 10)
}

func TestUseRolesWithoutGroupKeepsMissingKeyError(t *testing.T) {
	f := newFixture(t, &session.Session{UserID: "u1", Role: "coach"})

	h := f.scope.UseRoles(ctx(t), "")
	defer h.Close()
	snap, err := h.Wait(ctx(t))
	require.NoError(t, err)

	assert.EqualError(t, h.Err(), "No group found")
	assert.Equal(t, "No group found", snap.Error)
	assert.Empty(t, h.Roles())
	assert.False(t, h.Loading())
	assert.Len(t, h.Permissions(), 10, "the catalogue does not need a group")
	require.Len(t, f.srv.Requests(), 1, "only the catalogue is requested")
	assert.Equal(t, "/api/v1/permissions", f.srv.Requests()[0].Path)
}

func TestUseRolesListFailureSurvivesCatalogue(t *testing.T) {
	f := newFixture(t, coach)
	f.srv.Fail(http.MethodGet, "/api/v1/groups/g1/roles", http.StatusInternalServerError, 0)

	h := f.scope.UseRoles(ctx(t), "")
	defer h.Close()
	snap, err := h.Wait(ctx(t))
	require.NoError(t, err)

	require.Error(t, h.Err())
	assert.NotEmpty(t, snap.Error)
	assert.Empty(t, snap.PermissionsError)
	assert.Empty(t, h.Roles())
	assert.Len(t, h.Permissions(), 10)
}

func TestUseRolesCatalogueFailure(t *testing.T) {
	f := newFixture(t, coach)
	f.srv.Fail(http.MethodGet, "/api/v1/permissions", http.StatusInternalServerError, 0)

	h := f.scope.UseRoles(ctx(t), "")
	defer h.Close()
	snap, err := h.Wait(ctx(t))
	require.NoError(t, err)

	assert.Len(t, h.Roles(), 2)
	assert.Empty(t, snap.Error)
	assert.NotEmpty(t, snap.PermissionsError)
	assert.Error(t, h.Err())
}

func TestUseApp(t *testing.T) {
	f := newFixture(t, nil)

	h := f.scope.UseApp(ctx(t))
	defer h.Close()
	assert.False(t, h.Authenticated())

	f.stores.App.SetUser(&platform.User{ID: "u1"})
	snap := <-h.Updates()
	assert.Equal(t, state.StatusAuthenticated, snap.Status)
	assert.Equal(t, "u1", h.User().ID)
}

func TestWaitHonoursContext(t *testing.T) {
	f := newFixture(t, coach)
	f.srv.Hold("/api/v1/teams/t1/events")

	h := f.scope.UseEvents(context.Background(), "t1")
	defer h.Close()

	c, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := h.Wait(c)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
