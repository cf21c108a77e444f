package state

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// PerformanceAPI is the subset of the club API used by PerformanceStore.
type PerformanceAPI interface {
	ListPlayerPerformances(ctx context.Context, playerID string) ([]platform.Performance, error)
	ListEventPerformances(ctx context.Context, eventID string) ([]platform.Performance, error)
	GetEventPlayerPerformance(ctx context.Context, eventID, playerID string) (*platform.Performance, error)
	CreatePerformance(ctx context.Context, in platform.PerformanceInput) (*platform.Performance, error)
	UpdatePerformance(ctx context.Context, performanceID string, in platform.PerformanceInput) (*platform.Performance, error)
}

// PerformanceState is the published snapshot of PerformanceStore.
type PerformanceState struct {
	Performances []platform.Performance
	Performance  *platform.Performance
	Loading      bool
	Error        string
}

// PerformanceStore holds match statistics, either of one player across
// events or of every player in one event.
type PerformanceStore struct {
	*Container[PerformanceState]
	api PerformanceAPI
}

func NewPerformanceStore(api PerformanceAPI, m *metrics.Metrics, logger *log.Logger) *PerformanceStore {
	c := NewContainer("performances", PerformanceState{}, m, logger)
	c.trackLoading(func(st *PerformanceState) *bool { return &st.Loading })
	return &PerformanceStore{Container: c, api: api}
}

func (s *PerformanceStore) GetByPlayer(ctx context.Context, playerID string) {
	if playerID == "" {
		s.fail(slotList, func(st *PerformanceState) {
			st.Performances, st.Loading, st.Error = nil, false, ErrNoPlayer.Error()
		})
		return
	}
	s.list(ctx, func(ctx context.Context) ([]platform.Performance, error) {
		return s.api.ListPlayerPerformances(ctx, playerID)
	})
}

func (s *PerformanceStore) GetByEvent(ctx context.Context, eventID string) {
	if eventID == "" {
		s.fail(slotList, func(st *PerformanceState) {
			st.Performances, st.Loading, st.Error = nil, false, ErrNoEvent.Error()
		})
		return
	}
	s.list(ctx, func(ctx context.Context) ([]platform.Performance, error) {
		return s.api.ListEventPerformances(ctx, eventID)
	})
}

func (s *PerformanceStore) list(ctx context.Context, fetch func(context.Context) ([]platform.Performance, error)) {
	t := s.begin(slotList, func(st *PerformanceState) { st.Loading, st.Error = true, "" })
	perfs, err := fetch(ctx)
	s.commit(t, err == nil, func(st *PerformanceState) {
		st.Performances, st.Loading, st.Error = perfs, false, errString(err)
	})
}

// GetByEventAndPlayer loads the single record of playerID in eventID.
func (s *PerformanceStore) GetByEventAndPlayer(ctx context.Context, eventID, playerID string) {
	var missing MissingKeyError
	switch {
	case eventID == "":
		missing = ErrNoEvent
	case playerID == "":
		missing = ErrNoPlayer
	}
	if missing != "" {
		s.fail(slotItem, func(st *PerformanceState) {
			st.Performance, st.Loading, st.Error = nil, false, missing.Error()
		})
		return
	}

	t := s.begin(slotItem, func(st *PerformanceState) { st.Loading, st.Error = true, "" })
	perf, err := s.api.GetEventPlayerPerformance(ctx, eventID, playerID)
	s.commit(t, err == nil, func(st *PerformanceState) {
		st.Performance, st.Loading, st.Error = perf, false, errString(err)
	})
}

// Insert records a performance and refetches the event's performances.
func (s *PerformanceStore) Insert(ctx context.Context, in platform.PerformanceInput) (*platform.Performance, error) {
	switch {
	case in.EventID == "":
		s.fail(slotMutate, func(st *PerformanceState) { st.Loading, st.Error = false, ErrNoEvent.Error() })
		return nil, ErrNoEvent
	case in.PlayerID == "":
		s.fail(slotMutate, func(st *PerformanceState) { st.Loading, st.Error = false, ErrNoPlayer.Error() })
		return nil, ErrNoPlayer
	}

	t := s.begin(slotMutate, func(st *PerformanceState) { st.Loading, st.Error = true, "" })
	perf, err := s.api.CreatePerformance(ctx, in)
	s.commit(t, err == nil, func(st *PerformanceState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetByEvent(ctx, in.EventID)
	return perf, nil
}

func (s *PerformanceStore) Patch(ctx context.Context, performanceID string, in platform.PerformanceInput) (*platform.Performance, error) {
	if performanceID == "" {
		s.fail(slotMutate, func(st *PerformanceState) { st.Loading, st.Error = false, ErrNoPerformance.Error() })
		return nil, ErrNoPerformance
	}

	t := s.begin(slotMutate, func(st *PerformanceState) { st.Loading, st.Error = true, "" })
	perf, err := s.api.UpdatePerformance(ctx, performanceID, in)
	s.commit(t, err == nil, func(st *PerformanceState) {
		st.Loading, st.Error = false, errString(err)
		if err == nil {
			st.Performance = perf
		}
	})
	if err != nil {
		return nil, err
	}
	s.GetByEvent(ctx, perf.EventID)
	return perf, nil
}

func (s *PerformanceStore) Reset() {
	s.reset(PerformanceState{})
}

// Summary aggregates a set of performances.
type Summary struct {
	Appearances   int     `json:"appearances" yaml:"appearances"`
	MinutesPlayed int     `json:"minutes_played" yaml:"minutes_played"`
	Goals         int     `json:"goals" yaml:"goals"`
	Assists       int     `json:"assists" yaml:"assists"`
	YellowCards   int     `json:"yellow_cards" yaml:"yellow_cards"`
	RedCards      int     `json:"red_cards" yaml:"red_cards"`
	AverageRating float64 `json:"average_rating" yaml:"average_rating"`
	GoalsPer90    float64 `json:"goals_per_90" yaml:"goals_per_90"`
}

// Summarize totals perfs. Unrated records (rating 0) are left out of the
// average; records with no minutes are not counted as appearances.
func Summarize(perfs []platform.Performance) Summary {
	var (
		sum    Summary
		rating float64
		rated  int
	)
	for _, p := range perfs {
		if p.MinutesPlayed > 0 {
			sum.Appearances++
		}
		sum.MinutesPlayed += p.MinutesPlayed
		sum.Goals += p.Goals
		sum.Assists += p.Assists
		sum.YellowCards += p.YellowCards
		sum.RedCards += p.RedCards
		if p.Rating > 0 {
			rating += p.Rating
			rated++
		}
	}
	if rated > 0 {
		sum.AverageRating = rating / float64(rated)
	}
	if sum.MinutesPlayed > 0 {
		sum.GoalsPer90 = float64(sum.Goals) * 90 / float64(sum.MinutesPlayed)
	}
	return sum
}
