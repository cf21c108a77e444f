package exitcode

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error returns success", nil, Success},
		{"not signed in", errors.NewNotSignedInError(), AuthError},
		{"wrapped session expired", fmt.Errorf("whoami: %w", errors.NewSessionExpiredError(nil)), AuthError},
		{"permission denied", errors.NewPermissionDeniedError("coach", "create_team"), PermissionDenied},
		{"api unreachable", errors.NewAPIUnreachableError("http://x", nil), NetworkError},
		{"validation", errors.NewValidationError("TeamInput", nil), ValidationError},
		{"no team selected", errors.NewNoTeamSelectedError(), UsageError},
		{"config invalid", errors.NewConfigInvalidError("c.yaml", nil), UsageError},
		{"storage error falls through", errors.New(errors.ErrCodeStorageRead, "x"), GeneralError},
		{"http 401", fmt.Errorf("get: %w", statusErr(401)), AuthError},
		{"http 403", statusErr(403), PermissionDenied},
		{"http 422", statusErr(422), ValidationError},
		{"http 500", statusErr(500), GeneralError},
		{"net error", &net.OpError{Op: "dial", Err: fmt.Errorf("refused")}, NetworkError},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), NetworkError},
		{"usage message", fmt.Errorf(`unknown command "foo" for "clubhub"`), UsageError},
		{"generic", fmt.Errorf("something broke"), GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetermineExitCode(tt.err))
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	assert.Equal(t, "Success", GetExitCodeDescription(Success))
	assert.Equal(t, "Permission denied", GetExitCodeDescription(PermissionDenied))
	assert.Equal(t, "Network error", GetExitCodeDescription(NetworkError))
	assert.Equal(t, "Unknown error", GetExitCodeDescription(99))
}
