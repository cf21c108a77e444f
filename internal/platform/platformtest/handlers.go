package platformtest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/clubhub/internal/platform"
)

func ioNopCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

func userFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxUserKey{}).(string)
	return id
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds platform.Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[creds.Email]
	if !ok || acct.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, accessExp := s.newTokenLocked(acct.user.ID, "access")
	refresh, refreshExp := s.newTokenLocked(acct.user.ID, "refresh")
	user := acct.user
	resp := platform.LoginResponse{AccessToken: access, RefreshToken: refresh, User: &user}
	if !s.OmitExpiry {
		resp.ExpiresAt = &accessExp
		resp.RefreshExpiresAt = &refreshExp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg platform.Registration
	if err := decode(r, &reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[reg.Email]; exists {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	user := platform.User{
		ID: s.nextID("u"), Email: reg.Email, FirstName: reg.FirstName, LastName: reg.LastName,
		Role: "owner", GroupID: s.nextID("g"),
	}
	s.accounts[reg.Email] = account{password: reg.Password, user: user}

	if s.RegisterStatus == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, s.RegisterStatus, map[string]string{"status": "pending_verification"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, uid := range s.tokens {
		if uid == userFrom(r) {
			delete(s.tokens, tok)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.ID == userFrom(r) {
			writeJSON(w, http.StatusOK, acct.user)
			return
		}
	}
	writeError(w, http.StatusNotFound, "user not found")
}

// filter returns the items of all for which keep is true, never nil.
func filter[T any](all []T, keep func(T) bool) []T {
	out := []T{}
	for _, item := range all {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// find returns a pointer to the first matching item so handlers can update in place.
func find[T any](all []T, match func(T) bool) *T {
	for i := range all {
		if match(all[i]) {
			return &all[i]
		}
	}
	return nil
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.teams, func(t platform.Team) bool { return t.GroupID == group }))
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := find(s.teams, func(t platform.Team) bool { return t.ID == id }); t != nil {
		writeJSON(w, http.StatusOK, t)
		return
	}
	writeError(w, http.StatusNotFound, "team not found")
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var in platform.TeamInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := platform.Team{ID: s.nextID("t"), GroupID: chi.URLParam(r, "id"), Name: in.Name, Category: in.Category, Season: in.Season}
	s.teams = append(s.teams, t)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTeam(w http.ResponseWriter, r *http.Request) {
	var in platform.TeamInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	t := find(s.teams, func(t platform.Team) bool { return t.ID == id })
	if t == nil {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}
	t.Name, t.Category, t.Season = in.Name, in.Category, in.Season
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "id")
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.PageSize
	if n, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && n > 0 {
		size = n
	}
	roster := filter(s.players, func(p platform.Player) bool { return p.TeamID == team })
	start := (page - 1) * size
	if start > len(roster) {
		start = len(roster)
	}
	end := start + size
	if end > len(roster) {
		end = len(roster)
	}
	writeJSON(w, http.StatusOK, platform.PlayerPage{Items: roster[start:end], Page: page, HasNextPage: end < len(roster)})
}

func (s *Server) userPlayers(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.players, func(p platform.Player) bool { return p.UserID == user }))
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := find(s.players, func(p platform.Player) bool { return p.ID == id }); p != nil {
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeError(w, http.StatusNotFound, "player not found")
}

func playerFrom(in platform.PlayerInput, p *platform.Player) {
	p.FirstName, p.LastName, p.Position, p.Number, p.BirthDate, p.UserID =
		in.FirstName, in.LastName, in.Position, in.Number, in.BirthDate, in.UserID
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var in platform.PlayerInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := platform.Player{ID: s.nextID("p"), TeamID: chi.URLParam(r, "id")}
	playerFrom(in, &p)
	s.players = append(s.players, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updatePlayer(w http.ResponseWriter, r *http.Request) {
	var in platform.PlayerInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p := find(s.players, func(p platform.Player) bool { return p.ID == id })
	if p == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	playerFrom(in, p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listStaff(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.staff, func(m platform.Staff) bool { return m.TeamID == team }))
}

func (s *Server) getStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := find(s.staff, func(m platform.Staff) bool { return m.ID == id }); m != nil {
		writeJSON(w, http.StatusOK, m)
		return
	}
	writeError(w, http.StatusNotFound, "staff member not found")
}

func staffFrom(in platform.StaffInput, m *platform.Staff) {
	m.FirstName, m.LastName, m.Title, m.Email, m.Phone, m.UserID =
		in.FirstName, in.LastName, in.Title, in.Email, in.Phone, in.UserID
}

func (s *Server) createStaff(w http.ResponseWriter, r *http.Request) {
	var in platform.StaffInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := platform.Staff{ID: s.nextID("s"), TeamID: chi.URLParam(r, "id")}
	staffFrom(in, &m)
	s.staff = append(s.staff, m)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateStaff(w http.ResponseWriter, r *http.Request) {
	var in platform.StaffInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	m := find(s.staff, func(m platform.Staff) bool { return m.ID == id })
	if m == nil {
		writeError(w, http.StatusNotFound, "staff member not found")
		return
	}
	staffFrom(in, m)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.roles, func(role platform.Role) bool { return role.GroupID == group }))
}

func (s *Server) listPermissions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.permissions)
}

func (s *Server) permissionsNamed(names []string) []platform.Permission {
	out := []platform.Permission{}
	for _, name := range names {
		if p := find(s.permissions, func(p platform.Permission) bool { return p.Name == name }); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var in platform.RoleInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	role := platform.Role{ID: s.nextID("r"), GroupID: chi.URLParam(r, "id"), Name: in.Name, Permissions: s.permissionsNamed(in.Permissions)}
	s.roles = append(s.roles, role)
	writeJSON(w, http.StatusCreated, role)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	var in platform.RoleInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	role := find(s.roles, func(role platform.Role) bool { return role.ID == id })
	if role == nil {
		writeError(w, http.StatusNotFound, "role not found")
		return
	}
	role.Name, role.Permissions = in.Name, s.permissionsNamed(in.Permissions)
	writeJSON(w, http.StatusOK, role)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.events, func(e platform.Event) bool { return e.TeamID == team }))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := find(s.events, func(e platform.Event) bool { return e.ID == id }); e != nil {
		writeJSON(w, http.StatusOK, e)
		return
	}
	writeError(w, http.StatusNotFound, "event not found")
}

func eventFrom(in platform.EventInput, e *platform.Event) error {
	starts, err := parseTime(in.StartsAt)
	if err != nil {
		return err
	}
	e.Title, e.Type, e.Opponent, e.Location, e.Notes, e.StartsAt = in.Title, in.Type, in.Opponent, in.Location, in.Notes, starts
	e.EndsAt = nil
	if in.EndsAt != "" {
		ends, err := parseTime(in.EndsAt)
		if err != nil {
			return err
		}
		e.EndsAt = &ends
	}
	return nil
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var in platform.EventInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := platform.Event{ID: s.nextID("e"), TeamID: chi.URLParam(r, "id")}
	if err := eventFrom(in, &e); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.events = append(s.events, e)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	var in platform.EventInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	e := find(s.events, func(e platform.Event) bool { return e.ID == id })
	if e == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err := eventFrom(in, e); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) playerPerformances(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.performances, func(p platform.Performance) bool { return p.PlayerID == id }))
}

func (s *Server) eventPerformances(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.performances, func(p platform.Performance) bool { return p.EventID == id }))
}

func (s *Server) eventPlayerPerformance(w http.ResponseWriter, r *http.Request) {
	event, player := chi.URLParam(r, "id"), chi.URLParam(r, "playerID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := find(s.performances, func(p platform.Performance) bool { return p.EventID == event && p.PlayerID == player }); p != nil {
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeError(w, http.StatusNotFound, "performance not found")
}

func performanceFrom(in platform.PerformanceInput, p *platform.Performance) {
	p.EventID, p.PlayerID, p.MinutesPlayed, p.Goals, p.Assists = in.EventID, in.PlayerID, in.MinutesPlayed, in.Goals, in.Assists
	p.YellowCards, p.RedCards, p.Rating, p.Notes = in.YellowCards, in.RedCards, in.Rating, in.Notes
}

func (s *Server) createPerformance(w http.ResponseWriter, r *http.Request) {
	var in platform.PerformanceInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := platform.Performance{ID: s.nextID("f")}
	performanceFrom(in, &p)
	s.performances = append(s.performances, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updatePerformance(w http.ResponseWriter, r *http.Request) {
	var in platform.PerformanceInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p := find(s.performances, func(p platform.Performance) bool { return p.ID == id })
	if p == nil {
		writeError(w, http.StatusNotFound, "performance not found")
		return
	}
	performanceFrom(in, p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, filter(s.logs, func(l platform.LogEntry) bool { return l.GroupID == group }))
}

func (s *Server) createLog(w http.ResponseWriter, r *http.Request) {
	var in platform.LogInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := platform.LogEntry{
		ID: s.nextID("l"), GroupID: in.GroupID, UserID: userFrom(r), Action: in.Action,
		Resource: in.Resource, ResourceID: in.ResourceID, Message: in.Message, CreatedAt: nowUTC(),
	}
	s.logs = append(s.logs, entry)
	writeJSON(w, http.StatusCreated, entry)
}
