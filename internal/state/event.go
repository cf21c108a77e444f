package state

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// EventAPI is the subset of the club API used by EventStore.
type EventAPI interface {
	ListEvents(ctx context.Context, teamID string) ([]platform.Event, error)
	GetEvent(ctx context.Context, eventID string) (*platform.Event, error)
	CreateEvent(ctx context.Context, teamID string, in platform.EventInput) (*platform.Event, error)
	UpdateEvent(ctx context.Context, eventID string, in platform.EventInput) (*platform.Event, error)
}

// EventState is the published snapshot of EventStore.
type EventState struct {
	Events  []platform.Event
	Event   *platform.Event
	Loading bool
	Error   string
}

// EventStore holds the calendar of a team.
type EventStore struct {
	*Container[EventState]
	api EventAPI
}

func NewEventStore(api EventAPI, m *metrics.Metrics, logger *log.Logger) *EventStore {
	c := NewContainer("events", EventState{}, m, logger)
	c.trackLoading(func(st *EventState) *bool { return &st.Loading })
	return &EventStore{Container: c, api: api}
}

func (s *EventStore) GetEvents(ctx context.Context, teamID string) {
	if teamID == "" {
		s.fail(slotList, func(st *EventState) {
			st.Events, st.Loading, st.Error = nil, false, ErrNoTeam.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *EventState) { st.Loading, st.Error = true, "" })
	events, err := s.api.ListEvents(ctx, teamID)
	s.commit(t, err == nil, func(st *EventState) {
		st.Events, st.Loading, st.Error = events, false, errString(err)
	})
}

func (s *EventStore) GetEvent(ctx context.Context, eventID string) {
	if eventID == "" {
		s.fail(slotItem, func(st *EventState) {
			st.Event, st.Loading, st.Error = nil, false, ErrNoEvent.Error()
		})
		return
	}

	t := s.begin(slotItem, func(st *EventState) { st.Loading, st.Error = true, "" })
	event, err := s.api.GetEvent(ctx, eventID)
	s.commit(t, err == nil, func(st *EventState) {
		st.Event, st.Loading, st.Error = event, false, errString(err)
	})
}

// Insert schedules an event for teamID and refetches the team's events.
func (s *EventStore) Insert(ctx context.Context, teamID string, in platform.EventInput) (*platform.Event, error) {
	if teamID == "" {
		s.fail(slotMutate, func(st *EventState) { st.Loading, st.Error = false, ErrNoTeam.Error() })
		return nil, ErrNoTeam
	}

	t := s.begin(slotMutate, func(st *EventState) { st.Loading, st.Error = true, "" })
	event, err := s.api.CreateEvent(ctx, teamID, in)
	s.commit(t, err == nil, func(st *EventState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetEvents(ctx, teamID)
	return event, nil
}

// Patch updates an event and refetches its team's events.
func (s *EventStore) Patch(ctx context.Context, eventID string, in platform.EventInput) (*platform.Event, error) {
	if eventID == "" {
		s.fail(slotMutate, func(st *EventState) { st.Loading, st.Error = false, ErrNoEvent.Error() })
		return nil, ErrNoEvent
	}

	t := s.begin(slotMutate, func(st *EventState) { st.Loading, st.Error = true, "" })
	event, err := s.api.UpdateEvent(ctx, eventID, in)
	s.commit(t, err == nil, func(st *EventState) {
		st.Loading, st.Error = false, errString(err)
		if err == nil {
			st.Event = event
		}
	})
	if err != nil {
		return nil, err
	}
	s.GetEvents(ctx, event.TeamID)
	return event, nil
}

func (s *EventStore) Reset() {
	s.reset(EventState{})
}
