// Package session holds the signed-in user's identity and team context and
// keeps it persisted across runs.
package session

// Session is the authenticated user's context.
type Session struct {
	UserID        string `json:"user_id" yaml:"user_id"`
	ParentUserID  string `json:"parent_user_id,omitempty" yaml:"parent_user_id,omitempty"`
	Role          string `json:"role" yaml:"role"`
	GroupID       string `json:"group_id" yaml:"group_id"`
	CurrentTeamID string `json:"current_team_id,omitempty" yaml:"current_team_id,omitempty"`
}

// Authenticated reports whether the session identifies a user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// Patch is a partial Session. Nil fields are left untouched by Store.Write;
// a pointer to "" clears the field.
type Patch struct {
	UserID        *string
	ParentUserID  *string
	Role          *string
	GroupID       *string
	CurrentTeamID *string
}

// Ptr returns a pointer to s, for building a Patch.
func Ptr(s string) *string {
	return &s
}

// FromSession returns a Patch that sets every field of s.
func FromSession(s Session) Patch {
	return Patch{
		UserID:        Ptr(s.UserID),
		ParentUserID:  Ptr(s.ParentUserID),
		Role:          Ptr(s.Role),
		GroupID:       Ptr(s.GroupID),
		CurrentTeamID: Ptr(s.CurrentTeamID),
	}
}

func (p Patch) apply(s *Session) {
	if p.UserID != nil {
		s.UserID = *p.UserID
	}
	if p.ParentUserID != nil {
		s.ParentUserID = *p.ParentUserID
	}
	if p.Role != nil {
		s.Role = *p.Role
	}
	if p.GroupID != nil {
		s.GroupID = *p.GroupID
	}
	if p.CurrentTeamID != nil {
		s.CurrentTeamID = *p.CurrentTeamID
	}
}
