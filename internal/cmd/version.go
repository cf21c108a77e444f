package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/version"
)

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose || commandContext(cmd).Output != "text" {
				return printResult(cmd, info)
			}
			return printResult(cmd, "clubhub "+info.Version)
		},
	}
	versionCmd.Flags().BoolP("verbose", "v", false, "include commit, build date and platform")
	return versionCmd
}
