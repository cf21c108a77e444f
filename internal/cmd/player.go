package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

func newPlayerCmd() *cobra.Command {
	playerCmd := &cobra.Command{
		Use:     "player",
		Aliases: []string{"players"},
		Short:   "Manage the roster of the current team",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the players of the current team",
		Args:  cobra.NoArgs,
		RunE:  runPlayerList,
	}

	showCmd := &cobra.Command{
		Use:   "show <player-id>",
		Short: "Show a player",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlayerShow,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a player to the current team",
		Args:  cobra.NoArgs,
		RunE:  runPlayerAdd,
	}
	playerFlags(addCmd)
	_ = addCmd.MarkFlagRequired("first-name")
	_ = addCmd.MarkFlagRequired("last-name")

	updateCmd := &cobra.Command{
		Use:   "update <player-id>",
		Short: "Update a player",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlayerUpdate,
	}
	playerFlags(updateCmd)

	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "List the players linked to your account",
		Args:  cobra.NoArgs,
		RunE:  runPlayerMine,
	}

	playerCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, mineCmd)
	return playerCmd
}

var playerFlagNames = []string{"first-name", "last-name", "position", "number", "birth-date", "user"}

func playerFlags(cmd *cobra.Command) {
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("position", "", "position, e.g. GK")
	cmd.Flags().Int("number", 0, "shirt number")
	cmd.Flags().String("birth-date", "", "birth date (YYYY-MM-DD)")
	cmd.Flags().String("user", "", "link the player to a user account")
}

func playerInput(cmd *cobra.Command, base platform.Player) platform.PlayerInput {
	in := platform.PlayerInput{
		FirstName: base.FirstName,
		LastName:  base.LastName,
		Position:  base.Position,
		Number:    base.Number,
		BirthDate: base.BirthDate,
		UserID:    base.UserID,
	}
	f := cmd.Flags()
	if f.Changed("first-name") {
		in.FirstName, _ = f.GetString("first-name")
	}
	if f.Changed("last-name") {
		in.LastName, _ = f.GetString("last-name")
	}
	if f.Changed("position") {
		in.Position, _ = f.GetString("position")
	}
	if f.Changed("number") {
		in.Number, _ = f.GetInt("number")
	}
	if f.Changed("birth-date") {
		in.BirthDate, _ = f.GetString("birth-date")
	}
	if f.Changed("user") {
		in.UserID, _ = f.GetString("user")
	}
	return in
}

func printPlayer(cmd *cobra.Command, p *platform.Player) error {
	return printEntity(cmd, p, fields{
		{"ID", p.ID},
		{"Name", p.FullName()},
		{"Number", number(p.Number)},
		{"Position", p.Position},
		{"Born", p.BirthDate},
		{"Status", p.Status},
		{"Team", p.TeamID},
	})
}

func runPlayerList(cmd *cobra.Command, _ []string) error {
	svc, _, teamID, err := teamScope(cmd)
	if err != nil {
		return err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UsePlayers(cmd.Context(), teamID),
		func(s *state.PlayerState) string { return s.Error })
	if err != nil {
		return err
	}
	return printResult(cmd, playerList(snap.Players))
}

func loadPlayer(cmd *cobra.Command, playerID string) (*platform.Player, error) {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UsePlayer(cmd.Context(), playerID),
		func(s *state.PlayerState) string { return s.Error })
	if err != nil {
		return nil, err
	}
	if snap.Player == nil {
		return nil, notFound("player", playerID)
	}
	return snap.Player, nil
}

func runPlayerShow(cmd *cobra.Command, args []string) error {
	p, err := loadPlayer(cmd, args[0])
	if err != nil {
		return err
	}
	return printPlayer(cmd, p)
}

func runPlayerAdd(cmd *cobra.Command, _ []string) error {
	svc, sess, teamID, err := teamScope(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionCreate, authz.ResourcePlayer); err != nil {
		return err
	}

	p, err := svc.Stores.Players.Insert(cmd.Context(), teamID, playerInput(cmd, platform.Player{}))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "create", "player", p.ID, p.FullName())
	return printPlayer(cmd, p)
}

func runPlayerUpdate(cmd *cobra.Command, args []string) error {
	if !changed(cmd, playerFlagNames...) {
		return fmt.Errorf("nothing to update: set at least one player flag")
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourcePlayer); err != nil {
		return err
	}

	current, err := loadPlayer(cmd, args[0])
	if err != nil {
		return err
	}
	p, err := svc.Stores.Players.Patch(cmd.Context(), args[0], playerInput(cmd, *current))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "update", "player", p.ID, p.FullName())
	return printPlayer(cmd, p)
}

func runPlayerMine(cmd *cobra.Command, _ []string) error {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	svc.Stores.Players.GetPlayersByUser(cmd.Context(), sess.UserID)
	snap := svc.Stores.Players.Snapshot()
	if err := snapshotError(snap.Error); err != nil {
		return err
	}
	return printResult(cmd, playerList(snap.Players))
}
