// Package platformtest provides an in-memory fake of the club API for tests.
package platformtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// Fixture credentials.
const (
	CoachEmail    = "coach@club.test"
	OwnerEmail    = "owner@club.test"
	Password      = "correct-horse"
	GroupID       = "g1"
	JWTSigningKey = "platformtest-signing-key"
)

// Request is a recorded incoming request.
type Request struct {
	Method    string
	Path      string
	Query     string
	Auth      string
	RequestID string
	Body      []byte
}

type account struct {
	password string
	user     platform.User
}

type failure struct {
	status int
	times  int // <= 0 means forever
}

// Server is a fake club API backed by in-memory maps.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	accounts     map[string]account // by email
	tokens       map[string]string  // token -> user id
	teams        []platform.Team
	players      []platform.Player
	staff        []platform.Staff
	roles        []platform.Role
	permissions  []platform.Permission
	events       []platform.Event
	performances []platform.Performance
	logs         []platform.LogEntry
	requests     []Request
	failures     map[string]*failure      // "METHOD path" -> forced status
	holds        map[string]chan struct{} // path -> gate
	seq          int

	// PageSize is the roster page size of /teams/{id}/players.
	PageSize int
	// RegisterStatus is the status returned by a successful registration.
	RegisterStatus int
	// OmitExpiry drops expires_at/refresh_expires_at from login responses.
	OmitExpiry bool
	// IssueJWT makes access and refresh tokens HS256 JWTs with an exp claim.
	IssueJWT bool
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
}

// New starts a seeded fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		accounts:       make(map[string]account),
		tokens:         make(map[string]string),
		failures:       make(map[string]*failure),
		holds:          make(map[string]chan struct{}),
		PageSize:       2,
		RegisterStatus: http.StatusNoContent,
		TokenTTL:       time.Hour,
	}
	s.seed()
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.releaseAll()
		s.Close()
	})
	return s
}

func (s *Server) seed() {
	s.accounts[CoachEmail] = account{password: Password, user: platform.User{
		ID: "u1", Email: CoachEmail, FirstName: "Casey", LastName: "Coach", Role: "coach", GroupID: GroupID, ParentUserID: "u0",
	}}
	s.accounts[OwnerEmail] = account{password: Password, user: platform.User{
		ID: "u0", Email: OwnerEmail, FirstName: "Olive", LastName: "Owner", Role: "owner", GroupID: GroupID,
	}}

	s.teams = []platform.Team{
		{ID: "t1", GroupID: GroupID, Name: "Under 12", Category: "youth", Season: "2026"},
		{ID: "t2", GroupID: GroupID, Name: "Seniors", Category: "adult", Season: "2026"},
	}
	s.players = []platform.Player{
		{ID: "p1", TeamID: "t1", FirstName: "Ada", LastName: "Ames", Position: "forward", Number: 9},
		{ID: "p2", TeamID: "t1", FirstName: "Ben", LastName: "Barr", Position: "defender", Number: 4},
		{ID: "p3", TeamID: "t1", FirstName: "Cal", LastName: "Cole", Position: "midfielder", Number: 8, UserID: "u1"},
		{ID: "p4", TeamID: "t1", FirstName: "Dee", LastName: "Dunn", Position: "goalkeeper", Number: 1},
		{ID: "p5", TeamID: "t1", FirstName: "Eli", LastName: "Eze", Position: "forward", Number: 11},
		{ID: "p6", TeamID: "t2", FirstName: "Fay", LastName: "Ford", Position: "midfielder", Number: 6},
	}
	s.staff = []platform.Staff{
		{ID: "s1", TeamID: "t1", FirstName: "Casey", LastName: "Coach", Title: "Head coach", UserID: "u1"},
		{ID: "s2", TeamID: "t2", FirstName: "Pat", LastName: "Physio", Title: "Physio"},
	}
	s.permissions = []platform.Permission{
		{ID: "1", Name: "create_team"}, {ID: "2", Name: "create_event"}, {ID: "3", Name: "create_staff"},
		{ID: "4", Name: "create_player"}, {ID: "5", Name: "create_role"}, {ID: "6", Name: "manage_teams"},
		{ID: "7", Name: "manage_events"}, {ID: "8", Name: "manage_staff"}, {ID: "9", Name: "manage_players"},
		{ID: "10", Name: "manage_roles"},
	}
	s.roles = []platform.Role{
		{ID: "r1", GroupID: GroupID, Name: "coach", Permissions: []platform.Permission{
			{ID: "1", Name: "create_team"}, {ID: "9", Name: "manage_players"},
		}},
		{ID: "r2", GroupID: GroupID, Name: "owner", Permissions: append([]platform.Permission(nil), s.permissions...)},
	}
	kickoff := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	s.events = []platform.Event{
		{ID: "e1", TeamID: "t1", Title: "League match", Type: "match", Opponent: "Rovers", StartsAt: kickoff},
		{ID: "e2", TeamID: "t1", Title: "Training", Type: "training", StartsAt: kickoff.Add(72 * time.Hour)},
		{ID: "e3", TeamID: "t2", Title: "Cup match", Type: "match", Opponent: "United", StartsAt: kickoff},
	}
	s.performances = []platform.Performance{
		{ID: "f1", EventID: "e1", PlayerID: "p1", MinutesPlayed: 90, Goals: 2, Assists: 0, Rating: 8.5},
		{ID: "f2", EventID: "e1", PlayerID: "p2", MinutesPlayed: 90, YellowCards: 1, Rating: 6.5},
		{ID: "f3", EventID: "e1", PlayerID: "p3", MinutesPlayed: 60, Assists: 2, Rating: 7.0},
	}
	s.logs = []platform.LogEntry{
		{ID: "l1", GroupID: GroupID, UserID: "u0", Action: "create", Resource: "team", ResourceID: "t1", CreatedAt: kickoff.Add(-24 * time.Hour)},
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.logout)
			r.Get("/users/me", s.me)
			r.Get("/users/{id}/players", s.userPlayers)

			r.Get("/groups/{id}/teams", s.listTeams)
			r.Post("/groups/{id}/teams", s.createTeam)
			r.Get("/teams/{id}", s.getTeam)
			r.Put("/teams/{id}", s.updateTeam)

			r.Get("/teams/{id}/players", s.listPlayers)
			r.Post("/teams/{id}/players", s.createPlayer)
			r.Get("/players/{id}", s.getPlayer)
			r.Put("/players/{id}", s.updatePlayer)

			r.Get("/teams/{id}/staff", s.listStaff)
			r.Post("/teams/{id}/staff", s.createStaff)
			r.Get("/staff/{id}", s.getStaff)
			r.Put("/staff/{id}", s.updateStaff)

			r.Get("/groups/{id}/roles", s.listRoles)
			r.Post("/groups/{id}/roles", s.createRole)
			r.Put("/roles/{id}", s.updateRole)
			r.Get("/permissions", s.listPermissions)

			r.Get("/teams/{id}/events", s.listEvents)
			r.Post("/teams/{id}/events", s.createEvent)
			r.Get("/events/{id}", s.getEvent)
			r.Put("/events/{id}", s.updateEvent)

			r.Get("/players/{id}/performances", s.playerPerformances)
			r.Get("/events/{id}/performances", s.eventPerformances)
			r.Get("/events/{id}/players/{playerID}/performance", s.eventPlayerPerformance)
			r.Post("/performances", s.createPerformance)
			r.Put("/performances/{id}", s.updatePerformance)

			r.Get("/groups/{id}/logs", s.listLogs)
			r.Post("/logs", s.createLog)
		})
	})
	return r
}

// record logs every request, applies forced failures and holds.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var raw json.RawMessage
			_ = json.NewDecoder(r.Body).Decode(&raw)
			body = raw
			r.Body = ioNopCloser(body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      body,
		})
		gate := s.holds[r.URL.Path]
		status := 0
		if f, ok := s.failures[r.Method+" "+r.URL.Path]; ok {
			status = f.status
			if f.times > 0 {
				f.times--
				if f.times == 0 {
					delete(s.failures, r.Method+" "+r.URL.Path)
				}
			}
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, fmt.Sprintf("forced %d", status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxUserKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
	})
}

// Fail makes the next times requests to "method path" answer status.
// times <= 0 fails until ClearFailures.
func (s *Server) Fail(method, path string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, times: times}
}

// ClearFailures removes all forced failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// Hold blocks requests to path until the returned release func is called.
// Only one hold per path is supported.
func (s *Server) Hold(path string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.holds[path] = gate
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		owned := s.holds[path] == gate
		if owned {
			delete(s.holds, path)
		}
		s.mu.Unlock()
		if owned {
			close(gate)
		}
	}
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, gate := range s.holds {
		close(gate)
		delete(s.holds, path)
	}
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// IssueToken returns a valid access token for userID without a login call.
func (s *Server) IssueToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, _ := s.newTokenLocked(userID, "access")
	return tok
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// AddPlayers appends players to the roster.
func (s *Server) AddPlayers(players ...platform.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append(s.players, players...)
}

// SetRoles replaces the roles of the fixture group.
func (s *Server) SetRoles(roles ...platform.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = roles
}

func (s *Server) newTokenLocked(userID, kind string) (string, time.Time) {
	s.seq++
	exp := time.Now().Add(s.TokenTTL).Truncate(time.Second)
	if kind == "refresh" {
		exp = time.Now().Add(7 * 24 * time.Hour).Truncate(time.Second)
	}
	tok := fmt.Sprintf("%s-%s-%d", kind, userID, s.seq)
	if s.IssueJWT {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   userID,
			ID:        strconv.Itoa(s.seq),
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte(JWTSigningKey))
		if err == nil {
			tok = signed
		}
	}
	s.tokens[tok] = userID
	return tok, exp
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, 100+s.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Configure runs fn with the server locked, for changing the exported knobs
// while requests may be in flight.
func (s *Server) Configure(fn func(*Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}
