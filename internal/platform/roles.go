package platform

import (
	"context"
	"net/http"
)

// Permission is an entry of the permission catalogue. Name is the
// identifier roles are checked against, e.g. "create_team".
type Permission struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Role is a named set of permissions within a group.
type Role struct {
	ID          string       `json:"id" yaml:"id"`
	GroupID     string       `json:"group_id" yaml:"group_id"`
	Name        string       `json:"name" yaml:"name"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`
}

// RoleInput is the create/update payload for a role.
type RoleInput struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (c *Client) ListRoles(ctx context.Context, groupID string) ([]Role, error) {
	var roles []Role
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/groups/{groupID}/roles", params: []string{groupID}, out: &roles})
	return roles, err
}

// ListPermissions returns the permission catalogue.
func (c *Client) ListPermissions(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	_, err := c.do(ctx, request{method: http.MethodGet, route: "/permissions", out: &perms})
	return perms, err
}

func (c *Client) CreateRole(ctx context.Context, groupID string, in RoleInput) (*Role, error) {
	if err := c.validate("RoleInput", in); err != nil {
		return nil, err
	}
	var r Role
	if _, err := c.do(ctx, request{method: http.MethodPost, route: "/groups/{groupID}/roles", params: []string{groupID}, body: in, out: &r}); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) UpdateRole(ctx context.Context, roleID string, in RoleInput) (*Role, error) {
	if err := c.validate("RoleInput", in); err != nil {
		return nil, err
	}
	var r Role
	if _, err := c.do(ctx, request{method: http.MethodPut, route: "/roles/{id}", params: []string{roleID}, body: in, out: &r}); err != nil {
		return nil, err
	}
	return &r, nil
}
