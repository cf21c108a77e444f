package platform

import (
	"context"
	"net/http"
	"time"
)

// LogEntry is an activity log record of a group.
type LogEntry struct {
	ID         string    `json:"id" yaml:"id"`
	GroupID    string    `json:"group_id" yaml:"group_id"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	Action     string    `json:"action" yaml:"action"`
	Resource   string    `json:"resource" yaml:"resource"`
	ResourceID string    `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	Message    string    `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// LogInput records an activity.
type LogInput struct {
	GroupID    string `json:"group_id"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (c *Client) ListLogs(ctx context.Context, groupID string) ([]LogEntry, error) {
	var logs []LogEntry
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/groups/{groupID}/logs", params: []string{groupID}, out: &logs})
	return logs, err
}

func (c *Client) CreateLog(ctx context.Context, in LogInput) (*LogEntry, error) {
	if err := c.validate("LogInput", in); err != nil {
		return nil, err
	}
	var entry LogEntry
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/logs", body: in, out: &entry}); err != nil {
		return nil, err
	}
	return &entry, nil
}
