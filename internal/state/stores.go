package state

import (
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
)

// API is everything the stores need from the club API. *platform.Client
// implements it.
type API interface {
	TeamAPI
	PlayerAPI
	StaffAPI
	RoleAPI
	EventAPI
	PerformanceAPI
	LogAPI
}

// Stores is the set of containers shared by every consumer in a process.
type Stores struct {
	App          *AppStore
	Teams        *TeamStore
	Players      *PlayerStore
	Staff        *StaffStore
	Roles        *RoleStore
	Events       *EventStore
	Performances *PerformanceStore
	Logs         *LogStore
}

// NewStores creates every container backed by api.
func NewStores(api API, m *metrics.Metrics, logger *log.Logger) *Stores {
	return &Stores{
		App:          NewAppStore(m, logger),
		Teams:        NewTeamStore(api, m, logger),
		Players:      NewPlayerStore(api, m, logger),
		Staff:        NewStaffStore(api, m, logger),
		Roles:        NewRoleStore(api, m, logger),
		Events:       NewEventStore(api, m, logger),
		Performances: NewPerformanceStore(api, m, logger),
		Logs:         NewLogStore(api, m, logger),
	}
}

// ResetData clears every domain container and drops in-flight results. The
// App container is left to the authentication flow.
func (s *Stores) ResetData() {
	s.Teams.Reset()
	s.Players.Reset()
	s.Staff.Reset()
	s.Roles.Reset()
	s.Events.Reset()
	s.Performances.Reset()
	s.Logs.Reset()
}
