package state

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// maxPlayerPages bounds the roster walk in case the server never clears
// has_next_page.
const maxPlayerPages = 500

// PlayerAPI is the subset of the club API used by PlayerStore.
type PlayerAPI interface {
	ListTeamPlayers(ctx context.Context, teamID string, page int) (*platform.PlayerPage, error)
	ListUserPlayers(ctx context.Context, userID string) ([]platform.Player, error)
	GetPlayer(ctx context.Context, playerID string) (*platform.Player, error)
	CreatePlayer(ctx context.Context, teamID string, in platform.PlayerInput) (*platform.Player, error)
	UpdatePlayer(ctx context.Context, playerID string, in platform.PlayerInput) (*platform.Player, error)
}

// PlayerState is the published snapshot of PlayerStore.
type PlayerState struct {
	Players []platform.Player
	Player  *platform.Player
	Loading bool
	Error   string
}

// PlayerStore holds a team roster or the players linked to a user.
type PlayerStore struct {
	*Container[PlayerState]
	api PlayerAPI
}

func NewPlayerStore(api PlayerAPI, m *metrics.Metrics, logger *log.Logger) *PlayerStore {
	c := NewContainer("players", PlayerState{}, m, logger)
	c.trackLoading(func(st *PlayerState) *bool { return &st.Loading })
	return &PlayerStore{Container: c, api: api}
}

// GetPlayers walks every page of teamID's roster and publishes the
// concatenated list once the last page arrives.
func (s *PlayerStore) GetPlayers(ctx context.Context, teamID string) {
	if teamID == "" {
		s.fail(slotList, func(st *PlayerState) {
			st.Players, st.Loading, st.Error = nil, false, ErrNoTeam.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *PlayerState) { st.Loading, st.Error = true, "" })
	players, err := s.fetchRoster(ctx, teamID)
	s.commit(t, err == nil, func(st *PlayerState) {
		st.Players, st.Loading, st.Error = players, false, errString(err)
	})
}

func (s *PlayerStore) fetchRoster(ctx context.Context, teamID string) ([]platform.Player, error) {
	var all []platform.Player
	for page := 1; page <= maxPlayerPages; page++ {
		p, err := s.api.ListTeamPlayers(ctx, teamID, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if !p.HasNextPage {
			return all, nil
		}
	}
	return nil, fmt.Errorf("roster of team %s exceeds %d pages", teamID, maxPlayerPages)
}

// GetPlayersByUser loads the players linked to userID.
func (s *PlayerStore) GetPlayersByUser(ctx context.Context, userID string) {
	if userID == "" {
		s.fail(slotList, func(st *PlayerState) {
			st.Players, st.Loading, st.Error = nil, false, ErrNoUser.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *PlayerState) { st.Loading, st.Error = true, "" })
	players, err := s.api.ListUserPlayers(ctx, userID)
	s.commit(t, err == nil, func(st *PlayerState) {
		st.Players, st.Loading, st.Error = players, false, errString(err)
	})
}

// GetPlayer loads a single player.
func (s *PlayerStore) GetPlayer(ctx context.Context, playerID string) {
	if playerID == "" {
		s.fail(slotItem, func(st *PlayerState) {
			st.Player, st.Loading, st.Error = nil, false, ErrNoPlayer.Error()
		})
		return
	}

	t := s.begin(slotItem, func(st *PlayerState) { st.Loading, st.Error = true, "" })
	player, err := s.api.GetPlayer(ctx, playerID)
	s.commit(t, err == nil, func(st *PlayerState) {
		st.Player, st.Loading, st.Error = player, false, errString(err)
	})
}

// Insert adds a player to teamID and refetches the roster.
func (s *PlayerStore) Insert(ctx context.Context, teamID string, in platform.PlayerInput) (*platform.Player, error) {
	if teamID == "" {
		s.fail(slotMutate, func(st *PlayerState) { st.Loading, st.Error = false, ErrNoTeam.Error() })
		return nil, ErrNoTeam
	}

	t := s.begin(slotMutate, func(st *PlayerState) { st.Loading, st.Error = true, "" })
	player, err := s.api.CreatePlayer(ctx, teamID, in)
	s.commit(t, err == nil, func(st *PlayerState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetPlayers(ctx, teamID)
	return player, nil
}

// Patch updates a player and refetches its team's roster.
func (s *PlayerStore) Patch(ctx context.Context, playerID string, in platform.PlayerInput) (*platform.Player, error) {
	if playerID == "" {
		s.fail(slotMutate, func(st *PlayerState) { st.Loading, st.Error = false, ErrNoPlayer.Error() })
		return nil, ErrNoPlayer
	}

	t := s.begin(slotMutate, func(st *PlayerState) { st.Loading, st.Error = true, "" })
	player, err := s.api.UpdatePlayer(ctx, playerID, in)
	s.commit(t, err == nil, func(st *PlayerState) {
		st.Loading, st.Error = false, errString(err)
		if err == nil {
			st.Player = player
		}
	})
	if err != nil {
		return nil, err
	}
	s.GetPlayers(ctx, player.TeamID)
	return player, nil
}

// Reset discards all player data.
func (s *PlayerStore) Reset() {
	s.reset(PlayerState{})
}
