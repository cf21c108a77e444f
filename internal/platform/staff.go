package platform

import (
	"context"
	"net/http"
)

// Staff is a non-playing team member (coach, physio, manager).
type Staff struct {
	ID        string `json:"id" yaml:"id"`
	TeamID    string `json:"team_id" yaml:"team_id"`
	UserID    string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Title     string `json:"title" yaml:"title"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// FullName returns "First Last".
func (s Staff) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

// StaffInput is the create/update payload for a staff member.
type StaffInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Title     string `json:"title"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

func (c *Client) ListStaff(ctx context.Context, teamID string) ([]Staff, error) {
	var staff []Staff
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/teams/{teamID}/staff", params: []string{teamID}, out: &staff})
	return staff, err
}

func (c *Client) GetStaff(ctx context.Context, staffID string) (*Staff, error) {
	var s Staff
	if _, err := c.do(ctx, request{method: http.MethodGet, route: "/staff/{id}", params: []string{staffID}, out: &s}); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateStaff(ctx context.Context, teamID string, in StaffInput) (*Staff, error) {
	if err := c.validate("StaffInput", in); err != nil {
		return nil, err
	}
	var s Staff
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/teams/{teamID}/staff", params: []string{teamID}, body: in, out: &s}); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateStaff(ctx context.Context, staffID string, in StaffInput) (*Staff, error) {
	if err := c.validate("StaffInput", in); err != nil {
		return nil, err
	}
	var s Staff
	if _, err := c.do(ctx, request{method: http.MethodPut, route: "/staff/{id}", params: []string{staffID}, body: in, out: &s}); err != nil {
		return nil, err
	}
	return &s, nil
}
