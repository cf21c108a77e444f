package platform

import (
	"context"
	"net/http"
	"time"
)

// Event is a match, training session or meeting of a team.
type Event struct {
	ID       string     `json:"id" yaml:"id"`
	TeamID   string     `json:"team_id" yaml:"team_id"`
	Title    string     `json:"title" yaml:"title"`
	Type     string     `json:"type" yaml:"type"`
	Opponent string     `json:"opponent,omitempty" yaml:"opponent,omitempty"`
	Location string     `json:"location,omitempty" yaml:"location,omitempty"`
	StartsAt time.Time  `json:"starts_at" yaml:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty" yaml:"ends_at,omitempty"`
	Notes    string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// EventInput is the create/update payload for an event. Times are RFC 3339.
type EventInput struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Opponent string `json:"opponent,omitempty"`
	Location string `json:"location,omitempty"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (c *Client) ListEvents(ctx context.Context, teamID string) ([]Event, error) {
	var events []Event
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/teams/{teamID}/events", params: []string{teamID}, out: &events})
	return events, err
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	var e Event
	if _, err := c.do(ctx, request{method: http.MethodGet, route: "/events/{id}", params: []string{eventID}, out: &e}); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) CreateEvent(ctx context.Context, teamID string, in EventInput) (*Event, error) {
	if err := c.validate("EventInput", in); err != nil {
		return nil, err
	}
	var e Event
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/teams/{teamID}/events", params: []string{teamID}, body: in, out: &e}); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEvent(ctx context.Context, eventID string, in EventInput) (*Event, error) {
	if err := c.validate("EventInput", in); err != nil {
		return nil, err
	}
	var e Event
	if _, err := c.do(ctx, request{method: http.MethodPut, route: "/events/{id}", params: []string{eventID}, body: in, out: &e}); err != nil {
		return nil, err
	}
	return &e, nil
}
