package exitcode

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// PermissionDenied indicates the signed-in role lacks a capability
	PermissionDenied = 3

	// ValidationError indicates a payload rejected before or by the API
	ValidationError = 4

	// AuthError indicates an authentication failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6
)

// httpStatuser is implemented by API errors that carry a response status.
type httpStatuser interface {
	HTTPStatus() int
}

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Structured errors are inspected first; message matching is the fallback.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code := errors.CodeOf(err); code != "" {
		if c, ok := fromErrorCode(code); ok {
			return c
		}
	}

	var hs httpStatuser
	if stderrors.As(err, &hs) {
		switch hs.HTTPStatus() {
		case http.StatusUnauthorized:
			return AuthError
		case http.StatusForbidden:
			return PermissionDenied
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return ValidationError
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) || stderrors.Is(err, context.DeadlineExceeded) {
		return NetworkError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "not signed in") {
		return AuthError
	}
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return NetworkError
	}
	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	return GeneralError
}

func fromErrorCode(code errors.ErrorCode) (int, bool) {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "AUTH-"):
		return AuthError, true
	case strings.HasPrefix(c, "PERM-"):
		return PermissionDenied, true
	case code == errors.ErrCodeAPIUnreachable:
		return NetworkError, true
	case code == errors.ErrCodeAPIValidation:
		return ValidationError, true
	case code == errors.ErrCodeNoTeamSelected, strings.HasPrefix(c, "CONFIG-"):
		return UsageError, true
	}
	return 0, false
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or configuration)"
	case PermissionDenied:
		return "Permission denied"
	case ValidationError:
		return "Validation error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	default:
		return "Unknown error"
	}
}
