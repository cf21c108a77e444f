package state

import (
	"context"

	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
)

const slotPermissions slot = "permissions"

// RoleAPI is the subset of the club API used by RoleStore.
type RoleAPI interface {
	ListRoles(ctx context.Context, groupID string) ([]platform.Role, error)
	ListPermissions(ctx context.Context) ([]platform.Permission, error)
	CreateRole(ctx context.Context, groupID string, in platform.RoleInput) (*platform.Role, error)
	UpdateRole(ctx context.Context, roleID string, in platform.RoleInput) (*platform.Role, error)
}

// RoleState is the published snapshot of RoleStore. Error belongs to the
// roles list and mutations; PermissionsError to the catalogue fetch.
type RoleState struct {
	Roles            []platform.Role
	Permissions      []platform.Permission
	Loading          bool
	Error            string
	PermissionsError string
}

// Failure returns the roles error, or else the catalogue error.
func (s *RoleState) Failure() string {
	if s.Error != "" {
		return s.Error
	}
	return s.PermissionsError
}

// RoleStore holds the roles of a group and the permission catalogue.
type RoleStore struct {
	*Container[RoleState]
	api RoleAPI
}

func NewRoleStore(api RoleAPI, m *metrics.Metrics, logger *log.Logger) *RoleStore {
	c := NewContainer("roles", RoleState{}, m, logger)
	c.trackLoading(func(st *RoleState) *bool { return &st.Loading })
	return &RoleStore{Container: c, api: api}
}

// GetRoles loads the roles of groupID together with their permissions.
func (s *RoleStore) GetRoles(ctx context.Context, groupID string) {
	if groupID == "" {
		s.fail(slotList, func(st *RoleState) {
			st.Roles, st.Loading, st.Error = nil, false, ErrNoGroup.Error()
		})
		return
	}

	t := s.begin(slotList, func(st *RoleState) { st.Loading, st.Error = true, "" })
	roles, err := s.api.ListRoles(ctx, groupID)
	s.commit(t, err == nil, func(st *RoleState) {
		st.Roles, st.Loading, st.Error = roles, false, errString(err)
	})
}

// GetPermissions loads the permission catalogue.
func (s *RoleStore) GetPermissions(ctx context.Context) {
	t := s.begin(slotPermissions, func(st *RoleState) { st.Loading, st.PermissionsError = true, "" })
	perms, err := s.api.ListPermissions(ctx)
	s.commit(t, err == nil, func(st *RoleState) {
		st.Permissions, st.Loading, st.PermissionsError = perms, false, errString(err)
	})
}

func (s *RoleStore) Insert(ctx context.Context, groupID string, in platform.RoleInput) (*platform.Role, error) {
	if groupID == "" {
		s.fail(slotMutate, func(st *RoleState) { st.Loading, st.Error = false, ErrNoGroup.Error() })
		return nil, ErrNoGroup
	}

	t := s.begin(slotMutate, func(st *RoleState) { st.Loading, st.Error = true, "" })
	role, err := s.api.CreateRole(ctx, groupID, in)
	s.commit(t, err == nil, func(st *RoleState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetRoles(ctx, groupID)
	return role, nil
}

func (s *RoleStore) Patch(ctx context.Context, roleID string, in platform.RoleInput) (*platform.Role, error) {
	if roleID == "" {
		s.fail(slotMutate, func(st *RoleState) { st.Loading, st.Error = false, ErrNoRole.Error() })
		return nil, ErrNoRole
	}

	t := s.begin(slotMutate, func(st *RoleState) { st.Loading, st.Error = true, "" })
	role, err := s.api.UpdateRole(ctx, roleID, in)
	s.commit(t, err == nil, func(st *RoleState) { st.Loading, st.Error = false, errString(err) })
	if err != nil {
		return nil, err
	}
	s.GetRoles(ctx, role.GroupID)
	return role, nil
}

func (s *RoleStore) Reset() {
	s.reset(RoleState{})
}
