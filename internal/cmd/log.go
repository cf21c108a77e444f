package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/state"
)

func newLogCmd() *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Read and append to the club activity log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent activity",
		Args:  cobra.NoArgs,
		RunE:  runLogList,
	}
	listCmd.Flags().Int("limit", 0, "show at most this many entries (0 for all)")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record an activity",
		Args:  cobra.NoArgs,
		RunE:  runLogAdd,
	}
	addCmd.Flags().String("action", "note", "action, e.g. create or note")
	addCmd.Flags().String("resource", "club", "resource kind")
	addCmd.Flags().String("id", "", "resource ID")
	addCmd.Flags().StringP("message", "m", "", "message")
	_ = addCmd.MarkFlagRequired("message")

	logCmd.AddCommand(listCmd, addCmd)
	return logCmd
}

func runLogList(cmd *cobra.Command, _ []string) error {
	svc, _, err := signedIn(cmd)
	if err != nil {
		return err
	}
	snap, err := await(cmd.Context(), svc.Hooks.UseLogs(cmd.Context(), ""),
		func(s *state.LogState) string { return s.Error })
	if err != nil {
		return err
	}

	logs := snap.Logs
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	return printResult(cmd, logList(logs))
}

func runLogAdd(cmd *cobra.Command, _ []string) error {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	in := platform.LogInput{GroupID: sess.GroupID}
	in.Action, _ = cmd.Flags().GetString("action")
	in.Resource, _ = cmd.Flags().GetString("resource")
	in.ResourceID, _ = cmd.Flags().GetString("id")
	in.Message, _ = cmd.Flags().GetString("message")

	entry, err := svc.Stores.Logs.Insert(cmd.Context(), in)
	if err != nil {
		return err
	}
	return printResult(cmd, logList{*entry})
}
