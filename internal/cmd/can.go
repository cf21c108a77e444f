package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/errors"
)

func newCanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "can [permission]",
		Short: "Show what your role may do",
		Long: `Without an argument, list every capability of your role.
With a permission, exit with status 0 when it is granted and 3 otherwise.

Permissions may be written as create_team, create:team or team:create.`,
		Example: `  clubhub can
  clubhub can manage:player && clubhub player update p1 --number 9`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCan,
	}
}

// capabilityRow is one line of the "can" listing.
type capabilityRow struct {
	Permission string `json:"permission" yaml:"permission"`
	Granted    bool   `json:"granted" yaml:"granted"`
}

type capabilityList []capabilityRow

func (l capabilityList) Headers() []string { return []string{"PERMISSION", "GRANTED"} }
func (l capabilityList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, c := range l {
		granted := "no"
		if c.Granted {
			granted = "yes"
		}
		rows[i] = []string{c.Permission, granted}
	}
	return rows
}

func runCan(cmd *cobra.Command, args []string) error {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return err
	}
	caps, err := svc.LoadCapabilities(cmd.Context())
	if err != nil {
		return err
	}
	if msg := svc.Stores.Roles.Snapshot().Error; msg != "" {
		return snapshotError(msg)
	}

	if len(args) == 0 {
		list := make(capabilityList, len(authz.Permissions))
		for i, p := range authz.Permissions {
			list[i] = capabilityRow{Permission: string(p), Granted: caps.Has(p)}
		}
		return printResult(cmd, list)
	}

	p, err := authz.ParsePermission(args[0])
	if err != nil {
		return err
	}
	if !caps.Has(p) {
		return errors.NewPermissionDeniedError(sess.Role, string(p))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: granted to %s\n", p, sess.Role)
	return nil
}
