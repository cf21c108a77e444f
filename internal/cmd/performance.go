package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

func newPerformanceCmd() *cobra.Command {
	perfCmd := &cobra.Command{
		Use:     "performance",
		Aliases: []string{"perf", "stats"},
		Short:   "Record and review match statistics",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List performances of an event or of a player",
		Example: `  clubhub performance list --event e1
  clubhub performance list --player p1`,
		Args: cobra.NoArgs,
		RunE: runPerformanceList,
	}
	listCmd.Flags().String("event", "", "event ID")
	listCmd.Flags().String("player", "", "player ID")
	listCmd.MarkFlagsMutuallyExclusive("event", "player")
	listCmd.MarkFlagsOneRequired("event", "player")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show one player's performance in one event",
		Args:  cobra.NoArgs,
		RunE:  runPerformanceShow,
	}
	showCmd.Flags().String("event", "", "event ID")
	showCmd.Flags().String("player", "", "player ID")
	_ = showCmd.MarkFlagRequired("event")
	_ = showCmd.MarkFlagRequired("player")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a player's performance in an event",
		Args:  cobra.NoArgs,
		RunE:  runPerformanceAdd,
	}
	performanceFlags(addCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Correct a recorded performance",
		Args:  cobra.NoArgs,
		RunE:  runPerformanceUpdate,
	}
	performanceFlags(updateCmd)

	perfCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd)
	return perfCmd
}

var performanceStatFlags = []string{"minutes", "goals", "assists", "yellow", "red", "rating", "notes"}

func performanceFlags(cmd *cobra.Command) {
	cmd.Flags().String("event", "", "event ID")
	cmd.Flags().String("player", "", "player ID")
	cmd.Flags().Int("minutes", 0, "minutes played")
	cmd.Flags().Int("goals", 0, "goals scored")
	cmd.Flags().Int("assists", 0, "assists")
	cmd.Flags().Int("yellow", 0, "yellow cards")
	cmd.Flags().Int("red", 0, "red cards")
	cmd.Flags().Float64("rating", 0, "coach rating (0-10)")
	cmd.Flags().String("notes", "", "notes")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("player")
}

func performanceInput(cmd *cobra.Command, base platform.Performance) platform.PerformanceInput {
	in := platform.PerformanceInput{
		EventID:       base.EventID,
		PlayerID:      base.PlayerID,
		MinutesPlayed: base.MinutesPlayed,
		Goals:         base.Goals,
		Assists:       base.Assists,
		YellowCards:   base.YellowCards,
		RedCards:      base.RedCards,
		Rating:        base.Rating,
		Notes:         base.Notes,
	}
	f := cmd.Flags()
	in.EventID, _ = f.GetString("event")
	in.PlayerID, _ = f.GetString("player")
	for name, dst := range map[string]*int{
		"minutes": &in.MinutesPlayed,
		"goals":   &in.Goals,
		"assists": &in.Assists,
		"yellow":  &in.YellowCards,
		"red":     &in.RedCards,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	if f.Changed("rating") {
		in.Rating, _ = f.GetFloat64("rating")
	}
	if f.Changed("notes") {
		in.Notes, _ = f.GetString("notes")
	}
	return in
}

func printPerformance(cmd *cobra.Command, p *platform.Performance) error {
	return printEntity(cmd, p, fields{
		{"ID", p.ID},
		{"Event", p.EventID},
		{"Player", p.PlayerID},
		{"Minutes", strconv.Itoa(p.MinutesPlayed)},
		{"Goals", strconv.Itoa(p.Goals)},
		{"Assists", strconv.Itoa(p.Assists)},
		{"Cards", fmt.Sprintf("%d yellow, %d red", p.YellowCards, p.RedCards)},
		{"Rating", rating(p.Rating)},
		{"Notes", p.Notes},
	})
}

func runPerformanceList(cmd *cobra.Command, _ []string) error {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return err
	}
	eventID, _ := cmd.Flags().GetString("event")
	playerID, _ := cmd.Flags().GetString("player")

	snap, err := await(cmd.Context(), svc.Hooks.UsePerformances(cmd.Context(), eventID, playerID),
		func(s *state.PerformanceState) string { return s.Error })
	if err != nil {
		return err
	}
	return printResult(cmd, performanceReport{
		Performances: performanceList(snap.Performances),
		Summary:      state.Summarize(snap.Performances),
	})
}

func loadPerformance(cmd *cobra.Command, eventID, playerID string) (*platform.Performance, error) {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UsePerformances(cmd.Context(), eventID, playerID),
		func(s *state.PerformanceState) string { return s.Error })
	if err != nil {
		return nil, err
	}
	if snap.Performance == nil {
		return nil, notFound("performance", eventID+"/"+playerID)
	}
	return snap.Performance, nil
}

func runPerformanceShow(cmd *cobra.Command, _ []string) error {
	eventID, _ := cmd.Flags().GetString("event")
	playerID, _ := cmd.Flags().GetString("player")
	p, err := loadPerformance(cmd, eventID, playerID)
	if err != nil {
		return err
	}
	return printPerformance(cmd, p)
}

func runPerformanceAdd(cmd *cobra.Command, _ []string) error {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourceEvent); err != nil {
		return err
	}

	p, err := svc.Stores.Performances.Insert(cmd.Context(), performanceInput(cmd, platform.Performance{}))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "create", "performance", p.ID, p.EventID+"/"+p.PlayerID)
	return printPerformance(cmd, p)
}

func runPerformanceUpdate(cmd *cobra.Command, _ []string) error {
	if !changed(cmd, performanceStatFlags...) {
		return fmt.Errorf("nothing to update: set at least one statistic flag")
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourceEvent); err != nil {
		return err
	}

	eventID, _ := cmd.Flags().GetString("event")
	playerID, _ := cmd.Flags().GetString("player")
	current, err := loadPerformance(cmd, eventID, playerID)
	if err != nil {
		return err
	}
	p, err := svc.Stores.Performances.Patch(cmd.Context(), current.ID, performanceInput(cmd, *current))
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "update", "performance", p.ID, p.EventID+"/"+p.PlayerID)
	return printPerformance(cmd, p)
}
