package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

func newRoleCmd() *cobra.Command {
	roleCmd := &cobra.Command{
		Use:     "role",
		Aliases: []string{"roles"},
		Short:   "Manage the roles of your club",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List roles and their permissions",
		Args:  cobra.NoArgs,
		RunE:  runRoleList,
	}

	permsCmd := &cobra.Command{
		Use:   "permissions",
		Short: "List the permission catalogue",
		Args:  cobra.NoArgs,
		RunE:  runRolePermissions,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a role",
		Example: `  clubhub role add --name analyst --permission manage_events
  clubhub role add --name assistant --permission create:player --permission player:manage`,
		Args: cobra.NoArgs,
		RunE: runRoleAdd,
	}
	roleFlags(addCmd)
	_ = addCmd.MarkFlagRequired("name")

	updateCmd := &cobra.Command{
		Use:   "update <role-id>",
		Short: "Rename a role or replace its permissions",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoleUpdate,
	}
	roleFlags(updateCmd)

	roleCmd.AddCommand(listCmd, permsCmd, addCmd, updateCmd)
	return roleCmd
}

func roleFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "role name")
	cmd.Flags().StringSlice("permission", nil, "permission to grant (repeatable)")
}

func loadRoles(cmd *cobra.Command) (*state.RoleState, error) {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	return await(cmd.Context(), svc.Hooks.UseRoles(cmd.Context(), ""),
		func(s *state.RoleState) string { return s.Failure() })
}

func runRoleList(cmd *cobra.Command, _ []string) error {
	snap, err := loadRoles(cmd)
	if err != nil {
		return err
	}
	return printResult(cmd, roleList(snap.Roles))
}

func runRolePermissions(cmd *cobra.Command, _ []string) error {
	snap, err := loadRoles(cmd)
	if err != nil {
		return err
	}
	return printResult(cmd, permissionList(snap.Permissions))
}

// permissionNames normalizes the --permission values.
func permissionNames(cmd *cobra.Command) ([]string, error) {
	raw, _ := cmd.Flags().GetStringSlice("permission")
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		p, err := authz.ParsePermission(r)
		if err != nil {
			return nil, err
		}
		names = append(names, string(p))
	}
	return names, nil
}

func printRole(cmd *cobra.Command, r *platform.Role) error {
	return printResult(cmd, roleList{*r})
}

func runRoleAdd(cmd *cobra.Command, _ []string) error {
	perms, err := permissionNames(cmd)
	if err != nil {
		return err
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionCreate, authz.ResourceRole); err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	role, err := svc.Stores.Roles.Insert(cmd.Context(), sess.GroupID, platform.RoleInput{Name: name, Permissions: perms})
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "create", "role", role.ID, role.Name)
	return printRole(cmd, role)
}

func runRoleUpdate(cmd *cobra.Command, args []string) error {
	if !changed(cmd, "name", "permission") {
		return fmt.Errorf("nothing to update: set --name or --permission")
	}
	perms, err := permissionNames(cmd)
	if err != nil {
		return err
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourceRole); err != nil {
		return err
	}

	// Require has just loaded the group's roles.
	var current *platform.Role
	for _, r := range svc.Stores.Roles.Snapshot().Roles {
		if r.ID == args[0] {
			current = &r
			break
		}
	}
	if current == nil {
		return notFound("role", args[0])
	}

	in := platform.RoleInput{Name: current.Name}
	if cmd.Flags().Changed("name") {
		in.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("permission") {
		in.Permissions = perms
	} else {
		for _, p := range current.Permissions {
			in.Permissions = append(in.Permissions, p.Name)
		}
	}

	role, err := svc.Stores.Roles.Patch(cmd.Context(), args[0], in)
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "update", "role", role.ID, role.Name)
	return printRole(cmd, role)
}
