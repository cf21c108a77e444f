package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/report"
)

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Export statistics reports",
	}

	perfCmd := &cobra.Command{
		Use:   "performance",
		Short: "Export the performances of an event or a player",
		Long: `Export the performances of an event or a player as Markdown or HTML.

With --output json or yaml the collected report data is printed instead.`,
		Example: `  clubhub report performance --event e1
  clubhub report performance --player p1 --format html --out p1.html`,
		Args: cobra.NoArgs,
		RunE: runReportPerformance,
	}
	perfCmd.Flags().String("event", "", "event ID")
	perfCmd.Flags().String("player", "", "player ID")
	perfCmd.Flags().String("format", "md", "report format (md, html)")
	perfCmd.Flags().String("out", "", "write the report to a file instead of stdout")

	reportCmd.AddCommand(perfCmd)
	return reportCmd
}

func runReportPerformance(cmd *cobra.Command, _ []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	svc, _, err := signedIn(cmd)
	if err != nil {
		return err
	}

	req := report.Request{}
	req.EventID, _ = cmd.Flags().GetString("event")
	req.PlayerID, _ = cmd.Flags().GetString("player")
	data, err := report.Collect(cmd.Context(), svc.API, req)
	if err != nil {
		return err
	}
	if commandContext(cmd).Output != "text" {
		return printResult(cmd, data)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, data, format); err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeReportRender, fmt.Sprintf("failed to write %s", out), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s report to %s\n", format, out)
	return nil
}
