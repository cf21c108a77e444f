package state

import (
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// AuthStatus is the authentication state of the application.
type AuthStatus string

const (
	StatusUnauthenticated AuthStatus = "unauthenticated"
	StatusAuthenticating  AuthStatus = "authenticating"
	StatusAuthenticated   AuthStatus = "authenticated"
)

// AppState is the published snapshot of AppStore.
type AppState struct {
	User    *platform.User
	Status  AuthStatus
	Loading bool
	Error   string
}

// AppStore holds the signed-in user. Only the authentication flow writes it.
type AppStore struct {
	*Container[AppState]
}

func NewAppStore(m *metrics.Metrics, logger *log.Logger) *AppStore {
	return &AppStore{
		Container: NewContainer("app", AppState{Status: StatusUnauthenticated}, m, logger),
	}
}

func (s *AppStore) SetAuthenticating() {
	s.set(func(st *AppState) {
		st.Status, st.Loading, st.Error = StatusAuthenticating, true, ""
	})
	s.metrics.ObserveAuth(string(StatusAuthenticating))
}

// SetUser marks u as signed in.
func (s *AppStore) SetUser(u *platform.User) {
	s.set(func(st *AppState) {
		st.User, st.Status, st.Loading, st.Error = u, StatusAuthenticated, false, ""
	})
	s.metrics.ObserveAuth(string(StatusAuthenticated))
}

// Fail returns to unauthenticated and records err.
func (s *AppStore) Fail(err error) {
	s.set(func(st *AppState) {
		st.User, st.Status, st.Loading, st.Error = nil, StatusUnauthenticated, false, errString(err)
	})
	s.metrics.ObserveAuth(string(StatusUnauthenticated))
}

// Reset returns to the signed-out state without an error.
func (s *AppStore) Reset() {
	s.reset(AppState{Status: StatusUnauthenticated})
	s.metrics.ObserveAuth(string(StatusUnauthenticated))
}
