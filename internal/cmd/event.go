package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

// localLayout is accepted for --starts/--ends next to RFC 3339.
const localLayout = "2006-01-02 15:04"

func newEventCmd() *cobra.Command {
	eventCmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Manage the calendar of the current team",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the events of the current team",
		Args:  cobra.NoArgs,
		RunE:  runEventList,
	}

	showCmd := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show an event",
		Args:  cobra.ExactArgs(1),
		RunE:  runEventShow,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule an event for the current team",
		Example: `  clubhub event add --title "League match" --type match --opponent Rovers --starts "2026-11-07 10:30"
  clubhub event add --title Training --type training --starts 2026-11-04T18:00:00+01:00`,
		Args: cobra.NoArgs,
		RunE: runEventAdd,
	}
	eventFlags(addCmd)
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("starts")

	updateCmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update an event",
		Args:  cobra.ExactArgs(1),
		RunE:  runEventUpdate,
	}
	eventFlags(updateCmd)

	eventCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd)
	return eventCmd
}

var eventFlagNames = []string{"title", "type", "opponent", "location", "starts", "ends", "notes"}

func eventFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "event title")
	cmd.Flags().String("type", "match", "event type (match, training, meeting, other)")
	cmd.Flags().String("opponent", "", "opponent for matches")
	cmd.Flags().String("location", "", "venue")
	cmd.Flags().String("starts", "", `start time, RFC 3339 or "YYYY-MM-DD HH:MM" local time`)
	cmd.Flags().String("ends", "", "end time, same formats as --starts")
	cmd.Flags().String("notes", "", "free-form notes")
}

// parseTime accepts RFC 3339 or localLayout in the local time zone and
// returns RFC 3339.
func parseTime(flag, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(time.RFC3339), nil
	}
	t, err := time.ParseInLocation(localLayout, value, time.Local)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAPIValidation, fmt.Sprintf("invalid --%s %q", flag, value), err).
			WithSuggestion(`Use RFC 3339 (2026-11-07T10:30:00+01:00) or "2026-11-07 10:30"`)
	}
	return t.Format(time.RFC3339), nil
}

func eventInput(cmd *cobra.Command, base platform.Event) (platform.EventInput, error) {
	in := platform.EventInput{
		Title:    base.Title,
		Type:     base.Type,
		Opponent: base.Opponent,
		Location: base.Location,
		Notes:    base.Notes,
	}
	if !base.StartsAt.IsZero() {
		in.StartsAt = base.StartsAt.Format(time.RFC3339)
	}
	if base.EndsAt != nil {
		in.EndsAt = base.EndsAt.Format(time.RFC3339)
	}

	f := cmd.Flags()
	for name, dst := range map[string]*string{
		"title":    &in.Title,
		"opponent": &in.Opponent,
		"location": &in.Location,
		"notes":    &in.Notes,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	// The type default applies to new events only.
	if f.Changed("type") || in.Type == "" {
		in.Type, _ = f.GetString("type")
	}
	for name, dst := range map[string]*string{"starts": &in.StartsAt, "ends": &in.EndsAt} {
		if !f.Changed(name) {
			continue
		}
		raw, _ := f.GetString(name)
		v, err := parseTime(name, raw)
		if err != nil {
			return platform.EventInput{}, err
		}
		*dst = v
	}
	return in, nil
}

func printEvent(cmd *cobra.Command, e *platform.Event) error {
	ends := ""
	if e.EndsAt != nil {
		ends = e.EndsAt.Local().Format(localLayout)
	}
	return printEntity(cmd, e, fields{
		{"ID", e.ID},
		{"Title", e.Title},
		{"Type", e.Type},
		{"Opponent", e.Opponent},
		{"Location", e.Location},
		{"Starts", e.StartsAt.Local().Format(localLayout)},
		{"Ends", ends},
		{"Notes", e.Notes},
		{"Team", e.TeamID},
	})
}

func runEventList(cmd *cobra.Command, _ []string) error {
	svc, _, teamID, err := teamScope(cmd)
	if err != nil {
		return err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UseEvents(cmd.Context(), teamID),
		func(s *state.EventState) string { return s.Error })
	if err != nil {
		return err
	}
	return printResult(cmd, eventList(snap.Events))
}

func loadEvent(cmd *cobra.Command, eventID string) (*platform.Event, error) {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return nil, err
	}
	svc.Stores.Events.GetEvent(cmd.Context(), eventID)
	snap := svc.Stores.Events.Snapshot()
	if err := snapshotError(snap.Error); err != nil {
		return nil, err
	}
	if snap.Event == nil {
		return nil, notFound("event", eventID)
	}
	return snap.Event, nil
}

func runEventShow(cmd *cobra.Command, args []string) error {
	e, err := loadEvent(cmd, args[0])
	if err != nil {
		return err
	}
	return printEvent(cmd, e)
}

func runEventAdd(cmd *cobra.Command, _ []string) error {
	in, err := eventInput(cmd, platform.Event{})
	if err != nil {
		return err
	}
	svc, sess, teamID, err := teamScope(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionCreate, authz.ResourceEvent); err != nil {
		return err
	}

	e, err := svc.Stores.Events.Insert(cmd.Context(), teamID, in)
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "create", "event", e.ID, e.Title)
	return printEvent(cmd, e)
}

func runEventUpdate(cmd *cobra.Command, args []string) error {
	if !changed(cmd, eventFlagNames...) {
		return fmt.Errorf("nothing to update: set at least one event flag")
	}
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	if err := svc.Require(cmd.Context(), authz.ActionManage, authz.ResourceEvent); err != nil {
		return err
	}

	current, err := loadEvent(cmd, args[0])
	if err != nil {
		return err
	}
	in, err := eventInput(cmd, *current)
	if err != nil {
		return err
	}
	e, err := svc.Stores.Events.Patch(cmd.Context(), args[0], in)
	if err != nil {
		return err
	}
	record(cmd, svc, sess, "update", "event", e.ID, e.Title)
	return printEvent(cmd, e)
}
