package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
	"github.com/felixgeelhaar/clubhub/internal/tui"
)

func newTeamCmd() *cobra.Command {
	teamCmd := &cobra.Command{
		Use:     "team",
		Aliases: []string{"teams"},
		Short:   "List, create and switch teams",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the teams of your club",
		Args:  cobra.NoArgs,
		RunE:  runTeamList,
	}

	showCmd := &cobra.Command{
		Use:   "show [team-id]",
		Short: "Show a team (defaults to the current team)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTeamShow,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a team",
		Args:  cobra.NoArgs,
		RunE:  runTeamAdd,
	}
	teamFlags(addCmd)

	updateCmd := &cobra.Command{
		Use:   "update <team-id>",
		Short: "Update a team",
		Args:  cobra.ExactArgs(1),
		RunE:  runTeamUpdate,
	}
	teamFlags(updateCmd)

	switchCmd := &cobra.Command{
		Use:   "switch [team-id]",
		Short: "Make a team the current team",
		Long: `Make a team the current team and reload its roster, calendar and staff.

Without an argument an interactive picker is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTeamSwitch,
	}

	teamCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, switchCmd)
	return teamCmd
}

func teamFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "team name")
	cmd.Flags().String("category", "", "age group or category, e.g. U12")
	cmd.Flags().String("season", "", "season, e.g. 2026/27")
}

func listTeams(cmd *cobra.Command) ([]platform.Team, error) {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UseTeams(cmd.Context(), ""),
		func(s *state.TeamState) string { return s.Error })
	if err != nil {
		return nil, err
	}
	return snap.Teams, nil
}

func runTeamList(cmd *cobra.Command, _ []string) error {
	teams, err := listTeams(cmd)
	if err != nil {
		return err
	}
	return printResult(cmd, teamList(teams))
}

func runTeamShow(cmd *cobra.Command, args []string) error {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return err
	}
	teamID := commandContext(cmd).TeamID
	if len(args) == 1 {
		teamID = args[0]
	}
	if teamID, err = svc.TeamID(teamID); err != nil {
		return err
	}

	snap, err := await(cmd.Context(), svc.Hooks.UseTeam(cmd.Context(), teamID),
		func(s *state.TeamState) string { return s.Error })
	if err != nil {
		return err
	}
	if snap.Team == nil {
		return notFound("team", teamID)
	}
	return printTeam(cmd, snap.Team)
}

func printTeam(cmd *cobra.Command, t *platform.Team) error {
	return printEntity(cmd, t, fields{
		{"ID", t.ID},
		{"Name", t.Name},
		{"Category", t.Category},
		{"Season", t.Season},
		{"Club", t.GroupID},
	})
}

func teamInput(cmd *cobra.Command, base platform.Team) platform.TeamInput {
	in := platform.TeamInput{Name: base.Name, Category: base.Category, Season: base.Season}
	if cmd.Flags().Changed("name") {
		in.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("category") {
		in.Category, _ = cmd.Flags().GetString("category")
	}
	if cmd.Flags().Changed("season") {
		in.Season, _ = cmd.Flags().GetString("season")
	}
	return in
}

func runTeamAdd(cmd *cobra.Command, _ []string) error {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionCreate, authz.ResourceTeam); err != nil {
		return err
	}

	in := teamInput(cmd, platform.Team{})
	if in.Name == "" {
		if !tui.ShouldPrompt() {
			return fmt.Errorf("required flag(s) \"name\" not set")
		}
		if in.Name, err = tui.PromptForString(tui.Prompt{Message: "Team name", Placeholder: "Under 14", Required: true}); err != nil {
			return err
		}
	}
	team, err := svc.Stores.Teams.Insert(cmd.Context(), sess.GroupID, in)
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "create", "team", team.ID, team.Name)
	return printTeam(cmd, team)
}

func runTeamUpdate(cmd *cobra.Command, args []string) error {
	if !changed(cmd, "name", "category", "season") {
		return fmt.Errorf("nothing to update: set at least one of --name, --category, --season")
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourceTeam); err != nil {
		return err
	}

	snap, err := await(cmd.Context(), svc.Hooks.UseTeam(cmd.Context(), args[0]),
		func(s *state.TeamState) string { return s.Error })
	if err != nil {
		return err
	}
	if snap.Team == nil {
		return notFound("team", args[0])
	}
	team, err := svc.Stores.Teams.Patch(cmd.Context(), args[0], teamInput(cmd, *snap.Team))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "update", "team", team.ID, team.Name)
	return printTeam(cmd, team)
}

func runTeamSwitch(cmd *cobra.Command, args []string) error {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}

	teamID := ""
	if len(args) == 1 {
		teamID = args[0]
	} else {
		if !tui.ShouldPrompt() {
			return errors.NewNoTeamSelectedError()
		}
		teams, err := listTeams(cmd)
		if err != nil {
			return err
		}
		choices := make([]tui.Choice, len(teams))
		for i, t := range teams {
			choices[i] = tui.Choice{Label: t.Name, Value: t.ID}
		}
		if teamID, err = tui.PromptForSelect("Switch to team", choices, sess.CurrentTeamID); err != nil {
			return err
		}
	}

	if _, err := svc.SwitchTeam(cmd.Context(), teamID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Switched to team %s (%d players, %d events, %d staff)\n", teamID,
		len(svc.Stores.Players.Snapshot().Players),
		len(svc.Stores.Events.Snapshot().Events),
		len(svc.Stores.Staff.Snapshot().Staff))
	return nil
}
