package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/app"
	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/ux"
)

// drainTimeout bounds how long the CLI waits for background sign-out
// requests before exiting.
const drainTimeout = 3 * time.Second

// CommandContext holds the global flags and the configuration resolved for
// one invocation.
type CommandContext struct {
	Output     string
	LogLevel   string
	LogFormat  string
	TeamID     string
	ConfigPath string

	Config config.Config
	Logger *log.Logger
}

// NewCommandContext extracts the global flags from cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}
	teamID, err := cmd.Flags().GetString("team")
	if err != nil {
		return nil, err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		if configPath, err = config.Path(); err != nil {
			return nil, err
		}
	}

	return &CommandContext{
		Output:     output,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		TeamID:     teamID,
		ConfigPath: configPath,
	}, nil
}

// setup resolves flags, loads the config and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if _, err := ux.NewFormatter(cc.Output, nil); err != nil {
		return err
	}

	cfg, err := config.Load(cc.ConfigPath)
	if err != nil {
		return err
	}
	cc.Config = cfg
	cc.Logger = log.New(log.FromSettings(first(cc.LogLevel, cfg.Log.Level), first(cc.LogFormat, cfg.Log.Format)))
	log.SetDefaultLogger(cc.Logger)

	holderFrom(cmd).cc = cc
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type holderKey struct{}

// servicesHolder carries per-invocation state. Services are built on first
// use so that commands like "version" never touch storage.
type servicesHolder struct {
	cc       *CommandContext
	opts     []app.Option
	svc      *app.Services
	restored bool
}

func holderFrom(cmd *cobra.Command) *servicesHolder {
	if h, ok := cmd.Context().Value(holderKey{}).(*servicesHolder); ok {
		return h
	}
	// Commands executed without run (e.g. from tests of a single command).
	return &servicesHolder{}
}

func (h *servicesHolder) close(ctx context.Context) {
	if h.svc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := h.svc.Close(ctx); err != nil {
		h.cc.Logger.WithError(err).Warn("failed to close local storage")
	}
}

// commandContext returns the resolved CommandContext of the invocation.
func commandContext(cmd *cobra.Command) *CommandContext {
	return holderFrom(cmd).cc
}

// services returns the process services, building them on first use.
func services(cmd *cobra.Command) (*app.Services, error) {
	h := holderFrom(cmd)
	if h.svc != nil {
		return h.svc, nil
	}
	opts := append([]app.Option{app.WithLogger(h.cc.Logger)}, h.opts...)
	svc, err := app.New(h.cc.Config, opts...)
	if err != nil {
		return nil, err
	}
	h.svc = svc
	return svc, nil
}

// restored returns services with the persisted session resumed.
func restored(cmd *cobra.Command) (*app.Services, error) {
	svc, err := services(cmd)
	if err != nil {
		return nil, err
	}
	h := holderFrom(cmd)
	if !h.restored {
		if _, err := svc.Auth.Restore(cmd.Context()); err != nil {
			return nil, err
		}
		h.restored = true
	}
	return svc, nil
}

// signedIn returns services and the session, or a not-signed-in error.
func signedIn(cmd *cobra.Command) (*app.Services, *session.Session, error) {
	svc, err := restored(cmd)
	if err != nil {
		return nil, nil, err
	}
	sess, err := svc.Session()
	if err != nil {
		return nil, nil, err
	}
	return svc, sess, nil
}

// teamScope returns services, the session and the team to act on.
func teamScope(cmd *cobra.Command) (*app.Services, *session.Session, string, error) {
	svc, sess, err := signedIn(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	teamID, err := svc.TeamID(commandContext(cmd).TeamID)
	if err != nil {
		return nil, nil, "", err
	}
	return svc, sess, teamID, nil
}

// printResult writes data in the selected output format.
func printResult(cmd *cobra.Command, data any) error {
	f, err := ux.NewFormatter(commandContext(cmd).Output, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	return f.Format(data)
}

// snapshotError turns a container error message into a coded error.
func snapshotError(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(errors.ErrCodeAPIRejected, msg)
}

// waiter is the part of a hook commands need.
type waiter[S any] interface {
	Wait(ctx context.Context) (*S, error)
	Close()
}

// await waits for h to settle, releases it and turns a snapshot error into
// a coded error.
func await[S any](ctx context.Context, h waiter[S], errOf func(*S) string) (*S, error) {
	defer h.Close()
	snap, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := snapshotError(errOf(snap)); err != nil {
		return nil, err
	}
	return snap, nil
}

// record appends an entry to the group's activity log. Failures are logged
// and otherwise ignored.
func record(cmd *cobra.Command, svc *app.Services, sess *session.Session, action, resource, id, message string) {
	_, err := svc.Stores.Logs.Insert(cmd.Context(), platform.LogInput{
		GroupID:    sess.GroupID,
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Message:    message,
	})
	if err != nil {
		svc.Logger.WithError(err).Warn("failed to record activity", "action", action, "resource", resource)
	}
}

// changed reports whether any of the named flags were set.
func changed(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

func notFound(kind, id string) error {
	return errors.New(errors.ErrCodeAPIRejected, fmt.Sprintf("%s %q not found", kind, id))
}
