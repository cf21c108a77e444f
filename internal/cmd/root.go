package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/ux"
)

// NewRootCommand assembles the clubhub command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "clubhub",
		Short: "Sports club dashboard for the terminal",
		Long: `clubhub is a terminal client for your club's management platform.
It signs you in, keeps your session and current team between runs, and lets you
browse and manage teams, players, staff, events, roles and match statistics from
the command line or the interactive dashboard.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	flags := root.PersistentFlags()
	flags.StringP("output", "o", "text", "output format ("+strings.Join(ux.Formats, ", ")+")")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.String("team", "", "team to act on instead of the current team")
	flags.String("config", "", "config file (default is $HOME/.clubhub/config.yaml)")

	root.AddCommand(
		newAuthCmd(),
		newWhoamiCmd(),
		newCanCmd(),
		newTeamCmd(),
		newPlayerCmd(),
		newStaffCmd(),
		newRoleCmd(),
		newEventCmd(),
		newPerformanceCmd(),
		newLogCmd(),
		newReportCmd(),
		newDashboardCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)
	return root
}

// ExecuteContext runs the CLI with ctx and releases services afterwards.
func ExecuteContext(ctx context.Context) error {
	return run(ctx, NewRootCommand(), nil)
}

// run executes root with args (nil means os.Args) and closes whatever the
// command opened.
func run(ctx context.Context, root *cobra.Command, args []string) error {
	holder := &servicesHolder{}
	ctx = context.WithValue(ctx, holderKey{}, holder)
	if args != nil {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	holder.close(ctx)
	return ux.EnhanceError(err)
}
