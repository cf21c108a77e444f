package state_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/platform/platformtest"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

func setup(t *testing.T) (*platformtest.Server, *state.Stores, *metrics.Metrics) {
	t.Helper()
	srv := platformtest.New(t)
	c := platform.NewClient(srv.URL, platform.WithLogger(log.Nop()), platform.WithRetries(0, 0))
	c.SetAccessToken(srv.IssueToken("u1"), time.Now().Add(time.Hour))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return srv, state.NewStores(c, m, log.Nop()), m
}

func names(players []platform.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}

func TestMissingKeyPublishesErrorWithoutRequest(t *testing.T) {
	srv, s, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		fetch func()
		read  func() (loading bool, empty bool, msg string)
		want  string
	}{
		{"teams", func() { s.Teams.GetTeams(ctx, "") }, func() (bool, bool, string) {
			st := s.Teams.Snapshot()
			return st.Loading, st.Teams == nil, st.Error
		}, "No group found"},
		{"team", func() { s.Teams.GetTeam(ctx, "") }, func() (bool, bool, string) {
			st := s.Teams.Snapshot()
			return st.Loading, st.Team == nil, st.Error
		}, "No team found"},
		{"players", func() { s.Players.GetPlayers(ctx, "") }, func() (bool, bool, string) {
			st := s.Players.Snapshot()
			return st.Loading, st.Players == nil, st.Error
		}, "No team found"},
		{"players by user", func() { s.Players.GetPlayersByUser(ctx, "") }, func() (bool, bool, string) {
			st := s.Players.Snapshot()
			return st.Loading, st.Players == nil, st.Error
		}, "No user found"},
		{"player", func() { s.Players.GetPlayer(ctx, "") }, func() (bool, bool, string) {
			st := s.Players.Snapshot()
			return st.Loading, st.Player == nil, st.Error
		}, "No player found"},
		{"staff", func() { s.Staff.GetStaff(ctx, "") }, func() (bool, bool, string) {
			st := s.Staff.Snapshot()
			return st.Loading, st.Staff == nil, st.Error
		}, "No team found"},
		{"roles", func() { s.Roles.GetRoles(ctx, "") }, func() (bool, bool, string) {
			st := s.Roles.Snapshot()
			return st.Loading, st.Roles == nil, st.Error
		}, "No group found"},
		{"events", func() { s.Events.GetEvents(ctx, "") }, func() (bool, bool, string) {
			st := s.Events.Snapshot()
			return st.Loading, st.Events == nil, st.Error
		}, "No team found"},
		{"event", func() { s.Events.GetEvent(ctx, "") }, func() (bool, bool, string) {
			st := s.Events.Snapshot()
			return st.Loading, st.Event == nil, st.Error
		}, "No event found"},
		{"performances by player", func() { s.Performances.GetByPlayer(ctx, "") }, func() (bool, bool, string) {
			st := s.Performances.Snapshot()
			return st.Loading, st.Performances == nil, st.Error
		}, "No player found"},
		{"performances by event", func() { s.Performances.GetByEvent(ctx, "") }, func() (bool, bool, string) {
			st := s.Performances.Snapshot()
			return st.Loading, st.Performances == nil, st.Error
		}, "No event found"},
		{"performance without player", func() { s.Performances.GetByEventAndPlayer(ctx, "e1", "") }, func() (bool, bool, string) {
			st := s.Performances.Snapshot()
			return st.Loading, st.Performance == nil, st.Error
		}, "No player found"},
		{"logs", func() { s.Logs.GetLogs(ctx, "") }, func() (bool, bool, string) {
			st := s.Logs.Snapshot()
			return st.Loading, st.Logs == nil, st.Error
		}, "No group found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fetch()
			loading, empty, msg := tt.read()
			assert.False(t, loading)
			assert.True(t, empty)
			assert.Equal(t, tt.want, msg)
		})
	}
	assert.Empty(t, srv.Requests())
}

func TestMutationWithMissingKeyReturnsError(t *testing.T) {
	srv, s, _ := setup(t)
	ctx := context.Background()

	_, err := s.Players.Insert(ctx, "", platform.PlayerInput{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, state.ErrNoTeam)
	assert.Equal(t, "No team found", s.Players.Snapshot().Error)

	_, err = s.Performances.Insert(ctx, platform.PerformanceInput{EventID: "e1"})
	assert.ErrorIs(t, err, state.ErrNoPlayer)

	assert.Empty(t, srv.Requests())
}

func TestGetTeams(t *testing.T) {
	_, s, m := setup(t)

	s.Teams.GetTeams(context.Background(), platformtest.GroupID)

	st := s.Teams.Snapshot()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	require.Len(t, st.Teams, 2)
	assert.Equal(t, "Under 12", st.Teams[0].Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContainerFetches.WithLabelValues("teams", "ok")))
}

func TestFetchFailureResetsCollection(t *testing.T) {
	srv, s, _ := setup(t)
	ctx := context.Background()

	s.Events.GetEvents(ctx, "t1")
	require.Len(t, s.Events.Snapshot().Events, 2)

	srv.Fail(http.MethodGet, "/api/v1/teams/t1/events", http.StatusInternalServerError, 1)
	s.Events.GetEvents(ctx, "t1")

	st := s.Events.Snapshot()
	assert.Nil(t, st.Events)
	assert.False(t, st.Loading)
	assert.Contains(t, st.Error, "forced 500")
}

// pagedAPI serves a roster in fixed pages and records the Loading flag seen
// while each page is requested.
type pagedAPI struct {
	state.PlayerAPI
	pages   [][]platform.Player
	store   *state.PlayerStore
	loading []bool
}

func (a *pagedAPI) ListTeamPlayers(_ context.Context, _ string, page int) (*platform.PlayerPage, error) {
	a.loading = append(a.loading, a.store.Snapshot().Loading)
	return &platform.PlayerPage{
		Items:       a.pages[page-1],
		Page:        page,
		HasNextPage: page < len(a.pages),
	}, nil
}

func TestGetPlayersConcatenatesPages(t *testing.T) {
	api := &pagedAPI{pages: [][]platform.Player{
		{{ID: "a"}, {ID: "b"}},
		{{ID: "c"}, {ID: "d"}},
		{{ID: "e"}},
	}}
	store := state.NewPlayerStore(api, nil, log.Nop())
	api.store = store

	ch, unsub := store.Subscribe()
	defer unsub()

	store.GetPlayers(context.Background(), "t1")

	assert.Equal(t, []bool{true, true, true}, api.loading, "loading stays set until the last page")
	final := <-ch
	assert.False(t, final.Loading)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(final.Players))
}

func TestGetPlayersAgainstServer(t *testing.T) {
	srv, s, _ := setup(t)

	s.Players.GetPlayers(context.Background(), "t1")

	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, names(s.Players.Snapshot().Players))
	assert.Equal(t, 3, srv.Count(http.MethodGet, "/api/v1/teams/t1/players"))
}

func TestGetPlayersFailureMidway(t *testing.T) {
	srv, s, _ := setup(t)
	ctx := context.Background()

	s.Players.GetPlayers(ctx, "t1")
	require.Len(t, s.Players.Snapshot().Players, 5)

	// Page 1 succeeds, page 2 fails.
	release := srv.Hold("/api/v1/teams/t1/players")
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Players.GetPlayers(ctx, "t1")
	}()
	require.Eventually(t, func() bool {
		return srv.Count(http.MethodGet, "/api/v1/teams/t1/players") == 4
	}, time.Second, 5*time.Millisecond)
	srv.Fail(http.MethodGet, "/api/v1/teams/t1/players", http.StatusBadGateway, 0)
	release()
	<-done

	st := s.Players.Snapshot()
	assert.Nil(t, st.Players)
	assert.False(t, st.Loading)
	assert.NotEmpty(t, st.Error)
}

func TestStaleResponseIsDropped(t *testing.T) {
	srv, s, m := setup(t)
	ctx := context.Background()

	release := srv.Hold("/api/v1/teams/t1/players")
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Players.GetPlayers(ctx, "t1")
	}()
	require.Eventually(t, func() bool {
		return srv.Count(http.MethodGet, "/api/v1/teams/t1/players") == 1
	}, time.Second, 5*time.Millisecond)

	s.Players.GetPlayers(ctx, "t2")
	assert.Equal(t, []string{"p6"}, names(s.Players.Snapshot().Players))

	release()
	<-done

	assert.Equal(t, []string{"p6"}, names(s.Players.Snapshot().Players), "older request must not overwrite newer data")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses.WithLabelValues("players")))
}

func TestInsertRefetches(t *testing.T) {
	srv, s, _ := setup(t)
	ctx := context.Background()

	p, err := s.Players.Insert(ctx, "t2", platform.PlayerInput{FirstName: "Gus", LastName: "Gray", Position: "defender"})
	require.NoError(t, err)
	assert.Equal(t, "t2", p.TeamID)

	assert.Len(t, s.Players.Snapshot().Players, 2)
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/v1/teams/t2/players"))
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/v1/teams/t2/players"))
}

func TestInsertFailureIsPublishedAndReturned(t *testing.T) {
	srv, s, _ := setup(t)
	ctx := context.Background()
	s.Teams.GetTeams(ctx, platformtest.GroupID)

	srv.Fail(http.MethodPost, "/api/v1/groups/g1/teams", http.StatusForbidden, 1)
	_, err := s.Teams.Insert(ctx, platformtest.GroupID, platform.TeamInput{Name: "Veterans"})
	require.Error(t, err)

	st := s.Teams.Snapshot()
	assert.Contains(t, st.Error, "forced 403")
	assert.Len(t, st.Teams, 2, "no rollback or reset on mutation failure")
}

func TestPatchUpdatesRecordAndList(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()

	team, err := s.Teams.Patch(ctx, "t2", platform.TeamInput{Name: "First team", Category: "adult", Season: "2026"})
	require.NoError(t, err)
	assert.Equal(t, "First team", team.Name)

	st := s.Teams.Snapshot()
	require.NotNil(t, st.Team)
	assert.Equal(t, "First team", st.Team.Name)
	require.Len(t, st.Teams, 2)
	assert.Equal(t, "First team", st.Teams[1].Name)
}

func TestRolesAndPermissions(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()

	s.Roles.GetRoles(ctx, platformtest.GroupID)
	s.Roles.GetPermissions(ctx)

	st := s.Roles.Snapshot()
	require.Len(t, st.Roles, 2)
	assert.Len(t, st.Roles[0].Permissions, 2)
	assert.Len(t, st.Permissions, 10)
}

func TestPerformancesAndLogs(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()

	s.Performances.GetByEvent(ctx, "e1")
	assert.Len(t, s.Performances.Snapshot().Performances, 3)

	s.Performances.GetByEventAndPlayer(ctx, "e1", "p1")
	require.NotNil(t, s.Performances.Snapshot().Performance)
	assert.Equal(t, 2, s.Performances.Snapshot().Performance.Goals)

	_, err := s.Logs.Insert(ctx, platform.LogInput{GroupID: platformtest.GroupID, Action: "update", Resource: "team", ResourceID: "t1"})
	require.NoError(t, err)
	assert.Len(t, s.Logs.Snapshot().Logs, 2)
}

func TestResetData(t *testing.T) {
	_, s, _ := setup(t)
	ctx := context.Background()
	s.Teams.GetTeams(ctx, platformtest.GroupID)
	s.Staff.GetStaff(ctx, "t1")

	s.ResetData()

	assert.Nil(t, s.Teams.Snapshot().Teams)
	assert.Nil(t, s.Staff.Snapshot().Staff)
}

func TestAppStoreTransitions(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	app := state.NewAppStore(m, log.Nop())
	assert.Equal(t, state.StatusUnauthenticated, app.Snapshot().Status)

	app.SetAuthenticating()
	assert.True(t, app.Snapshot().Loading)

	app.SetUser(&platform.User{ID: "u1"})
	st := app.Snapshot()
	assert.Equal(t, state.StatusAuthenticated, st.Status)
	assert.False(t, st.Loading)
	assert.Equal(t, "u1", st.User.ID)

	app.Fail(assert.AnError)
	st = app.Snapshot()
	assert.Equal(t, state.StatusUnauthenticated, st.Status)
	assert.Nil(t, st.User)
	assert.Equal(t, assert.AnError.Error(), st.Error)

	app.Reset()
	assert.Empty(t, app.Snapshot().Error)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthTransitions.WithLabelValues("unauthenticated")))
}

func TestSummarize(t *testing.T) {
	sum := state.Summarize([]platform.Performance{
		{MinutesPlayed: 90, Goals: 2, Rating: 8},
		{MinutesPlayed: 90, Assists: 1, YellowCards: 1, Rating: 6},
		{MinutesPlayed: 0},
	})

	assert.Equal(t, 2, sum.Appearances)
	assert.Equal(t, 180, sum.MinutesPlayed)
	assert.Equal(t, 2, sum.Goals)
	assert.Equal(t, 1, sum.Assists)
	assert.Equal(t, 1, sum.YellowCards)
	assert.InDelta(t, 7.0, sum.AverageRating, 1e-9)
	assert.InDelta(t, 1.0, sum.GoalsPer90, 1e-9)

	assert.Equal(t, state.Summary{}, state.Summarize(nil))
}
