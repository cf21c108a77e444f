package state

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// TeamAPI is the subset of the club API used by TeamStore.
type TeamAPI interface {
	ListTeams(ctx context.Context, groupID string) ([]platform.Team, error)
	GetTeam(ctx context.Context, teamID string) (*platform.Team, error)
	CreateTeam(ctx context.Context, groupID string, in platform.TeamInput) (*platform.Team, error)
	UpdateTeam(ctx context.Context, teamID string, in platform.TeamInput) (*platform.Team, error)
}

// TeamState is the published snapshot of TeamStore.
type TeamState struct {
	Teams   []platform.Team
	Team    *platform.Team
	Loading bool
	Error   string
}

// TeamStore holds the teams of the current group.
type TeamStore struct {
	*Container[TeamState]
	api TeamAPI
}

func NewTeamStore(api TeamAPI, m *metrics.Metrics, logger *log.Logger) *TeamStore {
	c := NewContainer("teams", TeamState{}, m, logger)
	c.trackLoading(func(st *TeamState) *bool { return &st.Loading })
	return &TeamStore{Container: c, api: api}
}

// GetTeams loads every team of groupID.
func (s *TeamStore) GetTeams(ctx context.Context, groupID string) {
	if groupID == "" {
		s.fail(slotList, func(st *TeamState) {
			st.Teams, st.Loading, st.Error = nil, false, ErrNoGroup.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *TeamState) { st.Loading, st.Error = true, "" })
	teams, err := s.api.ListTeams(ctx, groupID)
	s.commit(t, err == nil, func(st *TeamState) {
		st.Teams, st.Loading, st.Error = teams, false, errString(err)
	})
}

// GetTeam loads a single team.
func (s *TeamStore) GetTeam(ctx context.Context, teamID string) {
	if teamID == "" {
		s.fail(slotItem, func(st *TeamState) {
			st.Team, st.Loading, st.Error = nil, false, ErrNoTeam.Error()
		})
		return
	}

	t := s.begin(slotItem, func(st *TeamState) { st.Loading, st.Error = true, "" })
	team, err := s.api.GetTeam(ctx, teamID)
	s.commit(t, err == nil, func(st *TeamState) {
		st.Team, st.Loading, st.Error = team, false, errString(err)
	})
}

// Insert creates a team in groupID and refetches the group's teams.
func (s *TeamStore) Insert(ctx context.Context, groupID string, in platform.TeamInput) (*platform.Team, error) {
	if groupID == "" {
		s.fail(slotMutate, func(st *TeamState) { st.Loading, st.Error = false, ErrNoGroup.Error() })
		return nil, ErrNoGroup
	}

	t := s.begin(slotMutate, func(st *TeamState) { st.Loading, st.Error = true, "" })
	team, err := s.api.CreateTeam(ctx, groupID, in)
	s.commit(t, err == nil, func(st *TeamState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetTeams(ctx, groupID)
	return team, nil
}

// Patch updates a team and refetches its group's teams.
func (s *TeamStore) Patch(ctx context.Context, teamID string, in platform.TeamInput) (*platform.Team, error) {
	if teamID == "" {
		s.fail(slotMutate, func(st *TeamState) { st.Loading, st.Error = false, ErrNoTeam.Error() })
		return nil, ErrNoTeam
	}

	t := s.begin(slotMutate, func(st *TeamState) { st.Loading, st.Error = true, "" })
	team, err := s.api.UpdateTeam(ctx, teamID, in)
	s.commit(t, err == nil, func(st *TeamState) {
		st.Loading, st.Error = false, errString(err)
		if err == nil {
			st.Team = team
		}
	})
	if err != nil {
		return nil, err
	}
	s.GetTeams(ctx, team.GroupID)
	return team, nil
}

// Reset discards all team data.
func (s *TeamStore) Reset() {
	s.reset(TeamState{})
}
