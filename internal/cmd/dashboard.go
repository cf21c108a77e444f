package cmd

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/tui"
	"github.com/felixgeelhaar/clubhub/internal/ux"
)

func newDashboardCmd() *cobra.Command {
	dashboardCmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive team dashboard",
		Long: `Open the interactive dashboard for the current team: roster, calendar and
staff in tabs that update as data arrives.

Logs go to the log file (see 'clubhub config path') while the dashboard runs.
With --metrics-addr the state-layer metrics are served for Prometheus.`,
		Args: cobra.NoArgs,
		RunE: runDashboard,
	}
	dashboardCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	return dashboardCmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	if !ux.IsInteractive() {
		return errors.New(errors.ErrCodeConfigInvalid, "the dashboard needs an interactive terminal").
			WithSuggestion("Use the list commands, e.g. 'clubhub player list', in scripts")
	}

	cc := commandContext(cmd)
	logPath, err := cc.Config.LogFilePath()
	if err != nil {
		return err
	}
	out, err := log.OutputFile(logPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageOpen, "failed to open the log file", err)
	}
	defer out.Close()

	lc := log.FromSettings(first(cc.LogLevel, cc.Config.Log.Level, "info"), first(cc.LogFormat, cc.Config.Log.Format))
	lc.Output = out
	cc.Logger = log.New(lc)
	log.SetDefaultLogger(cc.Logger)

	svc, err := restored(cmd)
	if err != nil {
		return err
	}
	if _, err := svc.Session(); err != nil {
		creds := platform.Credentials{}
		if err := tui.SignInForm(&creds); err != nil {
			return err
		}
		if _, err := svc.Auth.SignIn(cmd.Context(), creds); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		stop, err := serveMetrics(ctx, addr, svc.Registry, cc.Logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	cc.Logger.Info("opening dashboard", "team_id", cc.TeamID)
	return tui.Run(ctx, tui.Options{
		Scope:   svc.Hooks,
		Session: svc.Sessions,
		Backend: svc,
		Roster:  svc.Stores.Players,
		TeamID:  cc.TeamID,
		Logger:  cc.Logger,
	})
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(ctx context.Context, addr string, reg prometheus.Gatherer, logger *log.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to listen on "+addr, err)
	}
	srv := &http.Server{
		Handler:           metrics.Router(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
