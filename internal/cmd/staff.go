package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

func newStaffCmd() *cobra.Command {
	staffCmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage coaches and other staff of the current team",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the staff of the current team",
		Args:  cobra.NoArgs,
		RunE:  runStaffList,
	}

	showCmd := &cobra.Command{
		Use:   "show <staff-id>",
		Short: "Show a staff member",
		Args:  cobra.ExactArgs(1),
		RunE:  runStaffShow,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a staff member to the current team",
		Args:  cobra.NoArgs,
		RunE:  runStaffAdd,
	}
	staffFlags(addCmd)
	_ = addCmd.MarkFlagRequired("first-name")
	_ = addCmd.MarkFlagRequired("last-name")
	_ = addCmd.MarkFlagRequired("title")

	updateCmd := &cobra.Command{
		Use:   "update <staff-id>",
		Short: "Update a staff member",
		Args:  cobra.ExactArgs(1),
		RunE:  runStaffUpdate,
	}
	staffFlags(updateCmd)

	staffCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd)
	return staffCmd
}

var staffFlagNames = []string{"first-name", "last-name", "title", "email", "phone", "user"}

func staffFlags(cmd *cobra.Command) {
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("title", "", "role on the team, e.g. Head coach")
	cmd.Flags().String("email", "", "contact email")
	cmd.Flags().String("phone", "", "contact phone")
	cmd.Flags().String("user", "", "link the staff member to a user account")
}

func staffInput(cmd *cobra.Command, base platform.Staff) platform.StaffInput {
	in := platform.StaffInput{
		FirstName: base.FirstName,
		LastName:  base.LastName,
		Title:     base.Title,
		Email:     base.Email,
		Phone:     base.Phone,
		UserID:    base.UserID,
	}
	for name, dst := range map[string]*string{
		"first-name": &in.FirstName,
		"last-name":  &in.LastName,
		"title":      &in.Title,
		"email":      &in.Email,
		"phone":      &in.Phone,
		"user":       &in.UserID,
	} {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return in
}

func printStaff(cmd *cobra.Command, s *platform.Staff) error {
	return printEntity(cmd, s, fields{
		{"ID", s.ID},
		{"Name", s.FullName()},
		{"Title", s.Title},
		{"Email", s.Email},
		{"Phone", s.Phone},
		{"Team", s.TeamID},
	})
}

func runStaffList(cmd *cobra.Command, _ []string) error {
	svc, _, teamID, err := teamScope(cmd)
	if err != nil {
		return err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UseStaff(cmd.Context(), teamID),
		func(s *state.StaffState) string { return s.Error })
	if err != nil {
		return err
	}
	return printResult(cmd, staffList(snap.Staff))
}

func loadStaff(cmd *cobra.Command, staffID string) (*platform.Staff, error) {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	svc.Stores.Staff.GetStaffMember(cmd.Context(), staffID)
	snap := svc.Stores.Staff.Snapshot()
	if err := snapshotError(snap.Error); err != nil {
		return nil, err
	}
	if snap.Member == nil {
		return nil, notFound("staff member", staffID)
	}
	return snap.Member, nil
}

func runStaffShow(cmd *cobra.Command, args []string) error {
	s, err := loadStaff(cmd, args[0])
	if err != nil {
		return err
	}
	return printStaff(cmd, s)
}

func runStaffAdd(cmd *cobra.Command, _ []string) error {
	svc, sess, teamID, err := teamScope(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionCreate, authz.ResourceStaff); err != nil {
		return err
	}

	s, err := svc.Stores.Staff.Insert(cmd.Context(), teamID, staffInput(cmd, platform.Staff{}))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "create", "staff", s.ID, s.FullName())
	return printStaff(cmd, s)
}

func runStaffUpdate(cmd *cobra.Command, args []string) error {
	if !changed(cmd, staffFlagNames...) {
		return fmt.Errorf("nothing to update: set at least one staff flag")
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourceStaff); err != nil {
		return err
	}

	current, err := loadStaff(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := svc.Stores.Staff.Patch(cmd.Context(), args[0], staffInput(cmd, *current))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "update", "staff", s.ID, s.FullName())
	return printStaff(cmd, s)
}
