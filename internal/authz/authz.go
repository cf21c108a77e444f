// Package authz turns a role name and the group's role definitions into the
// capability flags that gate create and manage actions. Resolution is pure and
// fails closed: anything unknown grants nothing.
package authz

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

// Permission is a permission identifier as stored on a role.
type Permission string

const (
	PermCreateTeam    Permission = "create_team"
	PermCreateEvent   Permission = "create_event"
	PermCreateStaff   Permission = "create_staff"
	PermCreatePlayer  Permission = "create_player"
	PermCreateRole    Permission = "create_role"
	PermManageTeams   Permission = "manage_teams"
	PermManageEvents  Permission = "manage_events"
	PermManageStaff   Permission = "manage_staff"
	PermManagePlayers Permission = "manage_players"
	PermManageRoles   Permission = "manage_roles"
)

// Permissions lists every known permission in display order.
var Permissions = []Permission{
	PermCreateTeam, PermCreateEvent, PermCreateStaff, PermCreatePlayer, PermCreateRole,
	PermManageTeams, PermManageEvents, PermManageStaff, PermManagePlayers, PermManageRoles,
}

// Action is what a user attempts on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionManage Action = "manage"
)

// Resource is the kind of record an action targets.
type Resource string

const (
	ResourceTeam   Resource = "team"
	ResourceEvent  Resource = "event"
	ResourceStaff  Resource = "staff"
	ResourcePlayer Resource = "player"
	ResourceRole   Resource = "role"
)

// Capabilities are the resolved permission flags of one role.
type Capabilities struct {
	CanCreateTeam   bool `json:"can_create_team" yaml:"can_create_team"`
	CanCreateEvent  bool `json:"can_create_event" yaml:"can_create_event"`
	CanCreateStaff  bool `json:"can_create_staff" yaml:"can_create_staff"`
	CanCreatePlayer bool `json:"can_create_player" yaml:"can_create_player"`
	CanCreateRole   bool `json:"can_create_role" yaml:"can_create_role"`
	CanManageTeam   bool `json:"can_manage_team" yaml:"can_manage_team"`
	CanManageEvent  bool `json:"can_manage_event" yaml:"can_manage_event"`
	CanManageStaff  bool `json:"can_manage_staff" yaml:"can_manage_staff"`
	CanManagePlayer bool `json:"can_manage_player" yaml:"can_manage_player"`
	CanManageRole   bool `json:"can_manage_role" yaml:"can_manage_role"`
}

// Resolve finds roleName in roles and maps its permissions to capabilities.
// An unknown role, an empty role list or unknown permission names grant
// nothing.
func Resolve(roleName string, roles []platform.Role) Capabilities {
	var caps Capabilities
	if roleName == "" {
		return caps
	}
	for _, r := range roles {
		if r.Name != roleName {
			continue
		}
		for _, p := range r.Permissions {
			if flag := caps.flag(Permission(p.Name)); flag != nil {
				*flag = true
			}
		}
		return caps
	}
	return caps
}

func (c *Capabilities) flag(p Permission) *bool {
	switch p {
	case PermCreateTeam:
		return &c.CanCreateTeam
	case PermCreateEvent:
		return &c.CanCreateEvent
	case PermCreateStaff:
		return &c.CanCreateStaff
	case PermCreatePlayer:
		return &c.CanCreatePlayer
	case PermCreateRole:
		return &c.CanCreateRole
	case PermManageTeams:
		return &c.CanManageTeam
	case PermManageEvents:
		return &c.CanManageEvent
	case PermManageStaff:
		return &c.CanManageStaff
	case PermManagePlayers:
		return &c.CanManagePlayer
	case PermManageRoles:
		return &c.CanManageRole
	}
	return nil
}

// Has reports whether p is granted. Unknown permissions are never granted.
func (c Capabilities) Has(p Permission) bool {
	f := c.flag(p)
	return f != nil && *f
}

// Granted returns the granted permissions in display order.
func (c Capabilities) Granted() []Permission {
	var out []Permission
	for _, p := range Permissions {
		if c.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// PermissionFor maps an action on a resource to the permission that gates it.
func PermissionFor(action Action, resource Resource) (Permission, error) {
	switch action {
	case ActionCreate:
		return Permission(fmt.Sprintf("create_%s", resource)), nil
	case ActionManage:
		if resource == ResourceStaff {
			return PermManageStaff, nil
		}
		return Permission(fmt.Sprintf("manage_%ss", resource)), nil
	}
	return "", errors.New(errors.ErrCodeUnknownPermission, fmt.Sprintf("unknown action %q", action))
}

// Allows reports whether action on resource is permitted.
func (c Capabilities) Allows(action Action, resource Resource) bool {
	p, err := PermissionFor(action, resource)
	return err == nil && c.Has(p)
}

// Require returns a coded permission-denied error unless action on resource
// is permitted for role.
func (c Capabilities) Require(role string, action Action, resource Resource) error {
	p, err := PermissionFor(action, resource)
	if err != nil {
		return err
	}
	if !c.Has(p) {
		return errors.NewPermissionDeniedError(role, string(p))
	}
	return nil
}

// ParsePermission accepts "create_team" as well as "create:team" and
// "team:create" spellings.
func ParsePermission(s string) (Permission, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Permissions {
		if string(p) == s {
			return p, nil
		}
	}
	if a, r, ok := strings.Cut(s, ":"); ok {
		if p, err := PermissionFor(Action(a), Resource(r)); err == nil && known(p) {
			return p, nil
		}
		if p, err := PermissionFor(Action(r), Resource(a)); err == nil && known(p) {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnknownPermission, fmt.Sprintf("unknown permission %q", s)).
		WithSuggestion("Known permissions: " + joinPermissions(Permissions))
}

func known(p Permission) bool {
	var c Capabilities
	return c.flag(p) != nil
}

func joinPermissions(ps []Permission) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
