package state

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// StaffAPI is the subset of the club API used by StaffStore.
type StaffAPI interface {
	ListStaff(ctx context.Context, teamID string) ([]platform.Staff, error)
	GetStaff(ctx context.Context, staffID string) (*platform.Staff, error)
	CreateStaff(ctx context.Context, teamID string, in platform.StaffInput) (*platform.Staff, error)
	UpdateStaff(ctx context.Context, staffID string, in platform.StaffInput) (*platform.Staff, error)
}

// StaffState is the published snapshot of StaffStore.
type StaffState struct {
	Staff   []platform.Staff
	Member  *platform.Staff
	Loading bool
	Error   string
}

// StaffStore holds the staff of a team.
type StaffStore struct {
	*Container[StaffState]
	api StaffAPI
}

func NewStaffStore(api StaffAPI, m *metrics.Metrics, logger *log.Logger) *StaffStore {
	c := NewContainer("staff", StaffState{}, m, logger)
	c.trackLoading(func(st *StaffState) *bool { return &st.Loading })
	return &StaffStore{Container: c, api: api}
}

func (s *StaffStore) GetStaff(ctx context.Context, teamID string) {
	if teamID == "" {
		s.fail(slotList, func(st *StaffState) {
			st.Staff, st.Loading, st.Error = nil, false, ErrNoTeam.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *StaffState) { st.Loading, st.Error = true, "" })
	staff, err := s.api.ListStaff(ctx, teamID)
	s.commit(t, err == nil, func(st *StaffState) {
		st.Staff, st.Loading, st.Error = staff, false, errString(err)
	})
}

func (s *StaffStore) GetStaffMember(ctx context.Context, staffID string) {
	if staffID == "" {
		s.fail(slotItem, func(st *StaffState) {
			st.Member, st.Loading, st.Error = nil, false, ErrNoStaff.Error()
		})
		return
	}

	t := s.begin(slotItem, func(st *StaffState) { st.Loading, st.Error = true, "" })
	member, err := s.api.GetStaff(ctx, staffID)
	s.commit(t, err == nil, func(st *StaffState) {
		st.Member, st.Loading, st.Error = member, false, errString(err)
	})
}

// Insert adds a staff member to teamID and refetches the team's staff.
func (s *StaffStore) Insert(ctx context.Context, teamID string, in platform.StaffInput) (*platform.Staff, error) {
	if teamID == "" {
		s.fail(slotMutate, func(st *StaffState) { st.Loading, st.Error = false, ErrNoTeam.Error() })
		return nil, ErrNoTeam
	}

	t := s.begin(slotMutate, func(st *StaffState) { st.Loading, st.Error = true, "" })
	member, err := s.api.CreateStaff(ctx, teamID, in)
	s.commit(t, err == nil, func(st *StaffState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetStaff(ctx, teamID)
	return member, nil
}

// Patch updates a staff member and refetches the team's staff.
func (s *StaffStore) Patch(ctx context.Context, staffID string, in platform.StaffInput) (*platform.Staff, error) {
	if staffID == "" {
		s.fail(slotMutate, func(st *StaffState) { st.Loading, st.Error = false, ErrNoStaff.Error() })
		return nil, ErrNoStaff
	}

	t := s.begin(slotMutate, func(st *StaffState) { st.Loading, st.Error = true, "" })
	member, err := s.api.UpdateStaff(ctx, staffID, in)
	s.commit(t, err == nil, func(st *StaffState) {
		st.Loading, st.Error = false, errString(err)
		if err == nil {
			st.Member = member
		}
	})
	if err != nil {
		return nil, err
	}
	s.GetStaff(ctx, member.TeamID)
	return member, nil
}

func (s *StaffStore) Reset() {
	s.reset(StaffState{})
}
