package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Player is a team member who plays.
type Player struct {
	ID        string `json:"id" yaml:"id"`
	TeamID    string `json:"team_id" yaml:"team_id"`
	UserID    string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Position  string `json:"position,omitempty" yaml:"position,omitempty"`
	Number    int    `json:"number,omitempty" yaml:"number,omitempty"`
	BirthDate string `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
}

// FullName returns "First Last".
func (p Player) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// PlayerInput is the create/update payload for a player.
type PlayerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position,omitempty"`
	Number    int    `json:"number,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// PlayerPage is one page of a team's roster.
type PlayerPage struct {
	Items       []Player `json:"items"`
	Page        int      `json:"page"`
	HasNextPage bool     `json:"has_next_page"`
}

// ListTeamPlayers returns one page (1-based) of a team's players.
func (c *Client) ListTeamPlayers(ctx context.Context, teamID string, page int) (*PlayerPage, error) {
	query := url.Values{"page": []string{strconv.Itoa(page)}}
	if c.pageSize > 0 {
		query.Set("page_size", strconv.Itoa(c.pageSize))
	}
	var out PlayerPage
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/teams/{teamID}/players",
		params: []string{teamID},
		query:  query,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserPlayers returns the player records linked to a user account.
func (c *Client) ListUserPlayers(ctx context.Context, userID string) ([]Player, error) {
	var players []Player
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/users/{userID}/players", params: []string{userID}, out: &players})
	return players, err
}

// GetPlayer retrieves a player by ID.
func (c *Client) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	var p Player
	if _, err := c.do(ctx, request{method: http.MethodGet, route: "/players/{id}", params: []string{playerID}, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer adds a player to a team.
func (c *Client) CreatePlayer(ctx context.Context, teamID string, in PlayerInput) (*Player, error) {
	if err := c.validate("PlayerInput", in); err != nil {
		return nil, err
	}
	var p Player
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/teams/{teamID}/players", params: []string{teamID}, body: in, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePlayer replaces a player's editable fields.
func (c *Client) UpdatePlayer(ctx context.Context, playerID string, in PlayerInput) (*Player, error) {
	if err := c.validate("PlayerInput", in); err != nil {
		return nil, err
	}
	var p Player
	if _, err := c.do(ctx, request{method: http.MethodPut, route: "/players/{id}", params: []string{playerID}, body: in, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}
