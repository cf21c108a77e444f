package hooks

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

// TeamsHook lists the teams of a group.
type TeamsHook struct {
	*base[state.TeamState]
}

// UseTeams binds to the team list of groupID, or of the session's group.
func (sc *Scope) UseTeams(ctx context.Context, groupID string) *TeamsHook {
	store := sc.stores.Teams
	return &TeamsHook{base: mount(ctx, sc, store.Container,
		func(s *state.TeamState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.groupOr(p[0])} },
		func(ctx context.Context, p []string) { store.GetTeams(ctx, p[0]) },
		groupID)}
}

func (h *TeamsHook) SetParams(groupID string) bool { return h.setParams(groupID) }
func (h *TeamsHook) Teams() []platform.Team        { return h.Snapshot().Teams }
func (h *TeamsHook) Loading() bool                 { return h.Snapshot().Loading }
func (h *TeamsHook) Err() error                    { return asError(h.Snapshot().Error) }

// TeamHook loads a single team.
type TeamHook struct {
	*base[state.TeamState]
}

// UseTeam binds to teamID, or to the session's current team.
func (sc *Scope) UseTeam(ctx context.Context, teamID string) *TeamHook {
	store := sc.stores.Teams
	return &TeamHook{base: mount(ctx, sc, store.Container,
		func(s *state.TeamState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.teamOr(p[0])} },
		func(ctx context.Context, p []string) { store.GetTeam(ctx, p[0]) },
		teamID)}
}

func (h *TeamHook) SetParams(teamID string) bool { return h.setParams(teamID) }
func (h *TeamHook) Team() *platform.Team         { return h.Snapshot().Team }
func (h *TeamHook) Loading() bool                { return h.Snapshot().Loading }
func (h *TeamHook) Err() error                   { return asError(h.Snapshot().Error) }

// PlayersHook loads a full team roster.
type PlayersHook struct {
	*base[state.PlayerState]
}

// UsePlayers binds to the roster of teamID, or of the session's current team.
func (sc *Scope) UsePlayers(ctx context.Context, teamID string) *PlayersHook {
	store := sc.stores.Players
	return &PlayersHook{base: mount(ctx, sc, store.Container,
		func(s *state.PlayerState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.teamOr(p[0])} },
		func(ctx context.Context, p []string) { store.GetPlayers(ctx, p[0]) },
		teamID)}
}

func (h *PlayersHook) SetParams(teamID string) bool { return h.setParams(teamID) }
func (h *PlayersHook) Players() []platform.Player   { return h.Snapshot().Players }
func (h *PlayersHook) Loading() bool                { return h.Snapshot().Loading }
func (h *PlayersHook) Err() error                   { return asError(h.Snapshot().Error) }

// PlayerHook loads one player.
type PlayerHook struct {
	*base[state.PlayerState]
}

func (sc *Scope) UsePlayer(ctx context.Context, playerID string) *PlayerHook {
	store := sc.stores.Players
	return &PlayerHook{base: mount(ctx, sc, store.Container,
		func(s *state.PlayerState) bool { return s.Loading },
		nil,
		func(ctx context.Context, p []string) { store.GetPlayer(ctx, p[0]) },
		playerID)}
}

func (h *PlayerHook) SetParams(playerID string) bool { return h.setParams(playerID) }
func (h *PlayerHook) Player() *platform.Player       { return h.Snapshot().Player }
func (h *PlayerHook) Loading() bool                  { return h.Snapshot().Loading }
func (h *PlayerHook) Err() error                     { return asError(h.Snapshot().Error) }

// StaffHook loads the staff of a team.
type StaffHook struct {
	*base[state.StaffState]
}

func (sc *Scope) UseStaff(ctx context.Context, teamID string) *StaffHook {
	store := sc.stores.Staff
	return &StaffHook{base: mount(ctx, sc, store.Container,
		func(s *state.StaffState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.teamOr(p[0])} },
		func(ctx context.Context, p []string) { store.GetStaff(ctx, p[0]) },
		teamID)}
}

func (h *StaffHook) SetParams(teamID string) bool { return h.setParams(teamID) }
func (h *StaffHook) Staff() []platform.Staff      { return h.Snapshot().Staff }
func (h *StaffHook) Loading() bool                { return h.Snapshot().Loading }
func (h *StaffHook) Err() error                   { return asError(h.Snapshot().Error) }

// RolesHook loads the roles of a group and the permission catalogue.
type RolesHook struct {
	*base[state.RoleState]
}

func (sc *Scope) UseRoles(ctx context.Context, groupID string) *RolesHook {
	store := sc.stores.Roles
	return &RolesHook{base: mount(ctx, sc, store.Container,
		func(s *state.RoleState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.groupOr(p[0])} },
		func(ctx context.Context, p []string) {
			store.GetRoles(ctx, p[0])
			store.GetPermissions(ctx)
		},
		groupID)}
}

func (h *RolesHook) SetParams(groupID string) bool      { return h.setParams(groupID) }
func (h *RolesHook) Roles() []platform.Role             { return h.Snapshot().Roles }
func (h *RolesHook) Permissions() []platform.Permission { return h.Snapshot().Permissions }
func (h *RolesHook) Loading() bool                      { return h.Snapshot().Loading }
func (h *RolesHook) Err() error                         { return asError(h.Snapshot().Failure()) }

// EventsHook loads the calendar of a team.
type EventsHook struct {
	*base[state.EventState]
}

func (sc *Scope) UseEvents(ctx context.Context, teamID string) *EventsHook {
	store := sc.stores.Events
	return &EventsHook{base: mount(ctx, sc, store.Container,
		func(s *state.EventState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.teamOr(p[0])} },
		func(ctx context.Context, p []string) { store.GetEvents(ctx, p[0]) },
		teamID)}
}

func (h *EventsHook) SetParams(teamID string) bool { return h.setParams(teamID) }
func (h *EventsHook) Events() []platform.Event     { return h.Snapshot().Events }
func (h *EventsHook) Loading() bool                { return h.Snapshot().Loading }
func (h *EventsHook) Err() error                   { return asError(h.Snapshot().Error) }

// PerformancesHook loads statistics by event, by player, or for one player
// in one event, depending on which identifiers are set.
type PerformancesHook struct {
	*base[state.PerformanceState]
}

func (sc *Scope) UsePerformances(ctx context.Context, eventID, playerID string) *PerformancesHook {
	store := sc.stores.Performances
	return &PerformancesHook{base: mount(ctx, sc, store.Container,
		func(s *state.PerformanceState) bool { return s.Loading },
		nil,
		func(ctx context.Context, p []string) {
			switch event, player := p[0], p[1]; {
			case event != "" && player != "":
				store.GetByEventAndPlayer(ctx, event, player)
			case event != "":
				store.GetByEvent(ctx, event)
			default:
				store.GetByPlayer(ctx, player)
			}
		},
		eventID, playerID)}
}

func (h *PerformancesHook) SetParams(eventID, playerID string) bool {
	return h.setParams(eventID, playerID)
}

func (h *PerformancesHook) Performances() []platform.Performance {
	return h.Snapshot().Performances
}

func (h *PerformancesHook) Performance() *platform.Performance {
	return h.Snapshot().Performance
}

// Summary aggregates the loaded performances.
func (h *PerformancesHook) Summary() state.Summary {
	return state.Summarize(h.Snapshot().Performances)
}

func (h *PerformancesHook) Loading() bool { return h.Snapshot().Loading }
func (h *PerformancesHook) Err() error    { return asError(h.Snapshot().Error) }

// LogsHook loads the activity log of a group.
type LogsHook struct {
	*base[state.LogState]
}

func (sc *Scope) UseLogs(ctx context.Context, groupID string) *LogsHook {
	store := sc.stores.Logs
	return &LogsHook{base: mount(ctx, sc, store.Container,
		func(s *state.LogState) bool { return s.Loading },
		func(p []string) []string { return []string{sc.groupOr(p[0])} },
		func(ctx context.Context, p []string) { store.GetLogs(ctx, p[0]) },
		groupID)}
}

func (h *LogsHook) SetParams(groupID string) bool { return h.setParams(groupID) }
func (h *LogsHook) Logs() []platform.LogEntry     { return h.Snapshot().Logs }
func (h *LogsHook) Loading() bool                 { return h.Snapshot().Loading }
func (h *LogsHook) Err() error                    { return asError(h.Snapshot().Error) }

// AppHook observes authentication state. It never fetches.
type AppHook struct {
	*base[state.AppState]
}

func (sc *Scope) UseApp(ctx context.Context) *AppHook {
	return &AppHook{base: mount(ctx, sc, sc.stores.App.Container,
		func(s *state.AppState) bool { return s.Loading },
		nil, nil)}
}

func (h *AppHook) User() *platform.User     { return h.Snapshot().User }
func (h *AppHook) Status() state.AuthStatus { return h.Snapshot().Status }
func (h *AppHook) Authenticated() bool      { return h.Snapshot().Status == state.StatusAuthenticated }
func (h *AppHook) Loading() bool            { return h.Snapshot().Loading }
func (h *AppHook) Err() error               { return asError(h.Snapshot().Error) }
