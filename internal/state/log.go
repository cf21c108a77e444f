package state

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// LogAPI is the subset of the club API used by LogStore.
type LogAPI interface {
	ListLogs(ctx context.Context, groupID string) ([]platform.LogEntry, error)
	CreateLog(ctx context.Context, in platform.LogInput) (*platform.LogEntry, error)
}

// LogState is the published snapshot of LogStore.
type LogState struct {
	Logs    []platform.LogEntry
	Loading bool
	Error   string
}

// LogStore holds the activity log of a group.
type LogStore struct {
	*Container[LogState]
	api LogAPI
}

func NewLogStore(api LogAPI, m *metrics.Metrics, logger *log.Logger) *LogStore {
	c := NewContainer("logs", LogState{}, m, logger)
	c.trackLoading(func(st *LogState) *bool { return &st.Loading })
	return &LogStore{Container: c, api: api}
}

func (s *LogStore) GetLogs(ctx context.Context, groupID string) {
	if groupID == "" {
		s.fail(slotList, func(st *LogState) {
			st.Logs, st.Loading, st.Error = nil, false, ErrNoGroup.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *LogState) { st.Loading, st.Error = true, "" })
	logs, err := s.api.ListLogs(ctx, groupID)
	s.commit(t, err == nil, func(st *LogState) {
		st.Logs, st.Loading, st.Error = logs, false, errString(err)
	})
}

// Insert records an activity and refetches the group's log.
func (s *LogStore) Insert(ctx context.Context, in platform.LogInput) (*platform.LogEntry, error) {
	if in.GroupID == "" {
		s.fail(slotMutate, func(st *LogState) { st.Loading, st.Error = false, ErrNoGroup.Error() })
		return nil, ErrNoGroup
	}

	t := s.begin(slotMutate, func(st *LogState) { st.Loading, st.Error = true, "" })
	entry, err := s.api.CreateLog(ctx, in)
	s.commit(t, err == nil, func(st *LogState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetLogs(ctx, in.GroupID)
	return entry, nil
}

func (s *LogStore) Reset() {
	s.reset(LogState{})
}
