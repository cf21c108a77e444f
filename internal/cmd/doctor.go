package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/health"
)

func newDoctorCmd() *cobra.Command {
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, local storage, API reachability and session",
		Long: `Run local diagnostics and report each check as healthy, degraded or unhealthy.

The command exits non-zero when any check is unhealthy. Being signed out is
reported as degraded.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: setupConfig,
		RunE:              runDoctor,
	}
	doctorCmd.Flags().Duration("timeout", 5*time.Second, "timeout per check")
	return doctorCmd
}

// doctorReport is the machine-readable form of "doctor".
type doctorReport struct {
	Status health.Status   `json:"status" yaml:"status"`
	Checks []health.Report `json:"checks" yaml:"checks"`
}

func (r doctorReport) Headers() []string { return []string{"CHECK", "STATUS", "MESSAGE", "LATENCY"} }
func (r doctorReport) Rows() [][]string {
	rows := make([][]string, len(r.Checks))
	for i, c := range r.Checks {
		rows[i] = []string{c.Name, string(c.Status), c.Message, c.Latency.Round(time.Millisecond).String()}
	}
	return rows
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	timeout, _ := cmd.Flags().GetDuration("timeout")
	m := health.NewManager().WithTimeout(timeout)
	m.AddChecker(health.NewConfigChecker(cc.ConfigPath))

	// The remaining checks need a usable configuration.
	if cfg, err := config.Load(cc.ConfigPath); err == nil {
		cc.Config = cfg
		svc, err := services(cmd)
		if err != nil {
			return err
		}
		m.AddChecker(health.NewStorageChecker(svc.Local))
		m.AddChecker(health.NewAPIChecker(svc.API))
		m.AddChecker(health.NewSessionChecker(svc.Sessions, svc.Cookies))
	}

	reports := m.Check(cmd.Context())
	report := doctorReport{Status: health.OverallStatus(reports), Checks: reports}
	for _, r := range reports {
		cc.Logger.Debug("health check", "name", r.Name, "status", r.Status, "latency", r.Latency)
	}
	if err := printResult(cmd, report); err != nil {
		return err
	}

	if report.Status == health.StatusUnhealthy {
		var failed []string
		for _, r := range reports {
			if r.Status == health.StatusUnhealthy {
				failed = append(failed, r.Name)
			}
		}
		return errors.New(errors.ErrCodeHealthCheck, fmt.Sprintf("unhealthy: %s", strings.Join(failed, ", ")))
	}
	return nil
}
