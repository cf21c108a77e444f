package platform

import (
	"context"
	"net/http"
)

// Performance is one player's statistics for one event.
type Performance struct {
	ID            string  `json:"id" yaml:"id"`
	EventID       string  `json:"event_id" yaml:"event_id"`
	PlayerID      string  `json:"player_id" yaml:"player_id"`
	MinutesPlayed int     `json:"minutes_played" yaml:"minutes_played"`
	Goals         int     `json:"goals" yaml:"goals"`
	Assists       int     `json:"assists" yaml:"assists"`
	YellowCards   int     `json:"yellow_cards" yaml:"yellow_cards"`
	RedCards      int     `json:"red_cards" yaml:"red_cards"`
	Rating        float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes         string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// PerformanceInput is the create/update payload for a performance record.
type PerformanceInput struct {
	EventID       string  `json:"event_id"`
	PlayerID      string  `json:"player_id"`
	MinutesPlayed int     `json:"minutes_played"`
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	YellowCards   int     `json:"yellow_cards"`
	RedCards      int     `json:"red_cards"`
	Rating        float64 `json:"rating,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

func (c *Client) ListPlayerPerformances(ctx context.Context, playerID string) ([]Performance, error) {
	var out []Performance
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/players/{id}/performances", params: []string{playerID}, out: &out})
	return out, err
}

func (c *Client) ListEventPerformances(ctx context.Context, eventID string) ([]Performance, error) {
	var out []Performance
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/events/{id}/performances", params: []string{eventID}, out: &out})
	return out, err
}

// GetEventPlayerPerformance returns one player's record for one event.
func (c *Client) GetEventPlayerPerformance(ctx context.Context, eventID, playerID string) (*Performance, error) {
	var p Performance
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/events/{eventID}/players/{playerID}/performance",
		params: []string{eventID, playerID},
		out:    &p,
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePerformance(ctx context.Context, in PerformanceInput) (*Performance, error) {
	if err := c.validate("PerformanceInput", in); err != nil {
		return nil, err
	}
	var p Performance
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/performances", body: in, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePerformance(ctx context.Context, performanceID string, in PerformanceInput) (*Performance, error) {
	if err := c.validate("PerformanceInput", in); err != nil {
		return nil, err
	}
	var p Performance
	if _, err := c.do(ctx, request{method: http.MethodPut, route: "/performances/{id}", params: []string{performanceID}, body: in, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}
