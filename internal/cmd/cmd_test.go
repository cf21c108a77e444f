package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/exitcode"
	"github.com/felixgeelhaar/clubhub/internal/platform/platformtest"
)

type env struct {
	srv  *platformtest.Server
	home string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := platformtest.New(t)
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvAPIURL, srv.URL)
	t.Setenv("CI", "true")

	e := &env{srv: srv, home: home}
	e.mustRun(t, "config", "set", "max_retries", "0")
	return e
}

// exec runs one CLI invocation and returns its stdout.
func (e *env) exec(args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := run(context.Background(), root, args)
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.exec(args...)
	require.NoError(t, err, "clubhub %s", strings.Join(args, " "))
	return out
}

func (e *env) login(t *testing.T, email string) {
	t.Helper()
	e.mustRun(t, "auth", "login", "--email", email, "--password", platformtest.Password)
}

func TestVersion(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "clubhub dev\n", e.mustRun(t, "version"))

	out := e.mustRun(t, "version", "-o", "json")
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestLoginWhoamiAndStatus(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "auth", "login", "--email", platformtest.CoachEmail, "--password", platformtest.Password)
	assert.Contains(t, out, "Signed in as Casey Coach (coach)")

	out = e.mustRun(t, "whoami")
	assert.Contains(t, out, "Casey Coach")
	assert.Contains(t, out, platformtest.CoachEmail)

	out = e.mustRun(t, "auth", "status", "-o", "json")
	var st authStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.SignedIn)
	assert.Equal(t, "u1", st.UserID)
	assert.Equal(t, "coach", st.Role)
	require.NotNil(t, st.TokenExpires)
	assert.True(t, st.TokenExpires.After(time.Now()))
}

func TestLoginRejected(t *testing.T) {
	e := newEnv(t)

	_, err := e.exec("auth", "login", "--email", platformtest.CoachEmail, "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
}

func TestLoginWithoutFlagsInCI(t *testing.T) {
	e := newEnv(t)

	_, err := e.exec("auth", "login")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestCommandsRequireSignIn(t *testing.T) {
	e := newEnv(t)

	for _, args := range [][]string{
		{"whoami"},
		{"team", "list"},
		{"player", "list", "--team", "t1"},
		{"can"},
	} {
		_, err := e.exec(args...)
		require.Error(t, err, args)
		assert.Equal(t, errors.ErrCodeAuthRequired, errors.CodeOf(err), args)
		assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err), args)
	}

	out := e.mustRun(t, "auth", "status")
	assert.Contains(t, out, "Not signed in")
}

func TestTeamScopedCommands(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)

	_, err := e.exec("player", "list")
	assert.Equal(t, errors.ErrCodeNoTeamSelected, errors.CodeOf(err))
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))

	out := e.mustRun(t, "player", "list", "--team", "t2")
	assert.Contains(t, out, "Fay Ford")

	out = e.mustRun(t, "team", "list")
	assert.Contains(t, out, "Under 12")
	assert.Contains(t, out, "Seniors")

	out = e.mustRun(t, "team", "switch", "t1")
	assert.Equal(t, "Switched to team t1 (5 players, 2 events, 1 staff)\n", out)

	// The current team persists between invocations.
	out = e.mustRun(t, "player", "list")
	for _, name := range []string{"Ada Ames", "Ben Barr", "Cal Cole", "Dee Dunn", "Eli Eze"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, e.mustRun(t, "event", "list"), "League match")
	assert.Contains(t, e.mustRun(t, "staff", "list"), "Head coach")
	assert.Contains(t, e.mustRun(t, "team", "show"), "Under 12")

	out = e.mustRun(t, "player", "mine")
	assert.Contains(t, out, "Cal Cole")
	assert.NotContains(t, out, "Ada Ames")
}

func TestCapabilities(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)

	out := e.mustRun(t, "can", "-o", "json")
	var list capabilityList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	granted := map[string]bool{}
	for _, c := range list {
		granted[c.Permission] = c.Granted
	}
	assert.Len(t, granted, 10)
	assert.True(t, granted["create_team"])
	assert.True(t, granted["manage_players"])
	assert.False(t, granted["manage_roles"])

	out = e.mustRun(t, "can", "player:manage")
	assert.Contains(t, out, "manage_players: granted to coach")

	_, err := e.exec("can", "manage:roles")
	assert.Equal(t, exitcode.PermissionDenied, exitcode.DetermineExitCode(err))

	_, err = e.exec("can", "fly")
	assert.Equal(t, errors.ErrCodeUnknownPermission, errors.CodeOf(err))
}

func TestMutationsArePermissionChecked(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)
	e.mustRun(t, "team", "switch", "t1")
	before := e.srv.Count("POST", "/api/v1/teams/t1/staff")

	_, err := e.exec("staff", "add", "--first-name", "Kit", "--last-name", "Keeper", "--title", "GK coach")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePermissionDenied, errors.CodeOf(err))
	assert.Equal(t, before, e.srv.Count("POST", "/api/v1/teams/t1/staff"), "denied before any request")

	// coach may manage players
	out := e.mustRun(t, "player", "update", "p1", "--number", "10")
	assert.Contains(t, out, "Ada Ames")
	assert.Contains(t, out, "10")
}

func TestOwnerCreatesAndRecordsActivity(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.OwnerEmail)
	e.mustRun(t, "team", "switch", "t1")

	out := e.mustRun(t, "player", "add", "--first-name", "Gus", "--last-name", "Gray", "--number", "7")
	assert.Contains(t, out, "Gus Gray")
	assert.Contains(t, e.mustRun(t, "player", "list"), "Gus Gray")

	out = e.mustRun(t, "staff", "add", "--first-name", "Kit", "--last-name", "Keeper", "--title", "GK coach")
	assert.Contains(t, out, "GK coach")

	out = e.mustRun(t, "role", "add", "--name", "analyst", "--permission", "event:manage")
	assert.Contains(t, out, "manage_events")

	out = e.mustRun(t, "log", "list", "-o", "json")
	var logs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &logs))
	resources := map[string]bool{}
	for _, l := range logs {
		resources[l["resource"].(string)] = true
	}
	assert.True(t, resources["player"])
	assert.True(t, resources["staff"])
	assert.True(t, resources["role"])
}

func TestEventAddAndUpdate(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.OwnerEmail)

	out := e.mustRun(t, "event", "add", "--team", "t2", "--title", "Friendly", "--opponent", "Rovers",
		"--starts", "2026-11-07T10:30:00Z", "-o", "json")
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "match", created["type"])
	assert.Equal(t, "2026-11-07T10:30:00Z", created["starts_at"])
	id := created["id"].(string)

	out = e.mustRun(t, "event", "update", id, "--location", "Home ground", "-o", "json")
	var updated map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, "Home ground", updated["location"])
	assert.Equal(t, "Friendly", updated["title"], "unset flags keep their values")

	_, err := e.exec("event", "add", "--team", "t2", "--title", "Bad", "--starts", "next friday")
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
}

func TestPerformanceListAndUpdate(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.OwnerEmail)

	out := e.mustRun(t, "performance", "list", "--event", "e1", "-o", "json")
	var rep performanceReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Performances, 3)
	assert.Equal(t, 3, rep.Summary.Appearances)
	assert.Equal(t, 2, rep.Summary.Goals)

	out = e.mustRun(t, "performance", "list", "--player", "p1")
	assert.Contains(t, out, "1 appearances, 90 minutes, 2 goals")

	out = e.mustRun(t, "performance", "update", "--event", "e1", "--player", "p1", "--goals", "3")
	assert.Contains(t, out, "Goals:    3")

	_, err := e.exec("performance", "list")
	assert.Error(t, err)
}

func TestReportPerformance(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)

	out := e.mustRun(t, "report", "performance", "--event", "e1")
	assert.Contains(t, out, "League match")
	assert.Contains(t, out, "Ada Ames")

	path := filepath.Join(t.TempDir(), "p1.html")
	out = e.mustRun(t, "report", "performance", "--player", "p1", "--format", "html", "--out", path)
	assert.Contains(t, out, "Wrote html report")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<table>")

	_, err = e.exec("report", "performance", "--event", "e1", "--format", "pdf")
	assert.Equal(t, errors.ErrCodeReportFormat, errors.CodeOf(err))
}

func TestLogoutClearsSession(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)

	assert.Equal(t, "Signed out.\n", e.mustRun(t, "auth", "logout"))
	assert.Equal(t, 1, e.srv.Count("POST", "/api/v1/auth/logout"), "logout finishes before exit")

	_, err := e.exec("whoami")
	assert.Equal(t, errors.ErrCodeAuthRequired, errors.CodeOf(err))
	assert.Equal(t, "Not signed in.\n", e.mustRun(t, "auth", "logout"))
}

func TestRevokedSessionIsDropped(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)
	e.srv.RevokeTokens()

	_, err := e.exec("whoami")
	require.Error(t, err)
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "Set timeout = 10s\n", e.mustRun(t, "config", "set", "timeout", "10s"))
	assert.Equal(t, "10s\n", e.mustRun(t, "config", "get", "timeout"))
	assert.Contains(t, e.mustRun(t, "config", "view"), "max_retries:")
	assert.Contains(t, e.mustRun(t, "config", "path"), filepath.Join(e.home, "state.db"))

	_, err := e.exec("config", "set", "timeout", "0s")
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
	_, err = e.exec("config", "get", "nope")
	assert.Equal(t, errors.ErrCodeConfigKey, errors.CodeOf(err))
}

func TestInvalidConfigCanBeRepaired(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_size: -1\n"), 0o600))

	_, err := e.exec("team", "list")
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))

	e.mustRun(t, "config", "set", "page_size", "25")
	assert.Equal(t, "25\n", e.mustRun(t, "config", "get", "page_size"))
}

func TestDashboardNeedsTerminal(t *testing.T) {
	e := newEnv(t)

	_, err := e.exec("dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestDoctor(t *testing.T) {
	e := newEnv(t)
	e.login(t, platformtest.CoachEmail)

	out := e.mustRun(t, "doctor", "-o", "json")
	var rep struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Checks, 4)
	for _, c := range rep.Checks[:3] {
		assert.Equal(t, "healthy", c.Status, c.Name)
	}
	assert.Equal(t, "session", rep.Checks[3].Name)
	// fake tokens live for an hour
	assert.Equal(t, "degraded", rep.Status)
}

func TestDoctorReportsUnreachableAPI(t *testing.T) {
	e := newEnv(t)
	e.srv.Close()

	out, err := e.exec("doctor")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeHealthCheck, errors.CodeOf(err))
	assert.Contains(t, out, "club-api")
	assert.Contains(t, out, "unhealthy")
}

func TestUnknownOutputFormat(t *testing.T) {
	e := newEnv(t)

	_, err := e.exec("team", "list", "-o", "xml")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	v, err := parseTime("starts", "2026-11-07T10:30:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-07T10:30:00+01:00", v)

	v, err = parseTime("starts", "2026-11-07 10:30")
	require.NoError(t, err)
	parsed, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	assert.Equal(t, 10, parsed.In(time.Local).Hour())

	v, err = parseTime("ends", "")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = parseTime("starts", "tomorrow")
	assert.Equal(t, errors.ErrCodeAPIValidation, errors.CodeOf(err))
}

func TestFieldsAlign(t *testing.T) {
	assert.Equal(t, "ID:    p1\nName:  Ada", fields{{"ID", "p1"}, {"Name", "Ada"}}.String())
}
