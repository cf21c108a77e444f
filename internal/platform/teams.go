package platform

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Team is a squad within a group (club).
type Team struct {
	ID        string    `json:"id" yaml:"id"`
	GroupID   string    `json:"group_id" yaml:"group_id"`
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category,omitempty" yaml:"category,omitempty"`
	Season    string    `json:"season,omitempty" yaml:"season,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// TeamInput is the create/update payload for a team.
type TeamInput struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Season   string `json:"season,omitempty"`
}

// ListTeams returns the teams of a group.
func (c *Client) ListTeams(ctx context.Context, groupID string) ([]Team, error) {
	var teams []Team
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/groups/{groupID}/teams", params: []string{groupID}, out: &teams})
	return teams, err
}

// GetTeam retrieves a team by ID
func (c *Client) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	var team Team
	if _, err := c.do(ctx, request{method: http.MethodGet, route: "/teams/{id}", params: []string{teamID}, out: &team}); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam creates a team in a group.
func (c *Client) CreateTeam(ctx context.Context, groupID string, in TeamInput) (*Team, error) {
	if err := c.validate("TeamInput", in); err != nil {
		return nil, err
	}
	var team Team
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/groups/{groupID}/teams", params: []string{groupID}, body: in, out: &team}); err != nil {
		return nil, err
	}
	return &team, nil
}

// UpdateTeam replaces a team's editable fields.
func (c *Client) UpdateTeam(ctx context.Context, teamID string, in TeamInput) (*Team, error) {
	if err := c.validate("TeamInput", in); err != nil {
		return nil, err
	}
	var team Team
	if _, err := c.do(ctx, request{method: http.MethodPut, route: "/teams/{id}", params: []string{teamID}, body: in, out: &team}); err != nil {
		return nil, err
	}
	return &team, nil
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
