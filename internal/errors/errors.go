package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthRequired       ErrorCode = "AUTH-001"
	ErrCodeAuthInvalid        ErrorCode = "AUTH-002"
	ErrCodeAuthExpired        ErrorCode = "AUTH-003"
	ErrCodeAuthRegistration   ErrorCode = "AUTH-004"
	ErrCodeAuthLogoutFailed   ErrorCode = "AUTH-005"
	ErrCodeAuthProfileMissing ErrorCode = "AUTH-006"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionCorrupt     ErrorCode = "SESSION-001"
	ErrCodeSessionWriteFailed ErrorCode = "SESSION-002"
	ErrCodeNoTeamSelected     ErrorCode = "SESSION-003"

	// API errors (API-001 to API-099)
	ErrCodeAPIUnreachable ErrorCode = "API-001"
	ErrCodeAPIRejected    ErrorCode = "API-002"
	ErrCodeAPIValidation  ErrorCode = "API-003"
	ErrCodeAPIDecode      ErrorCode = "API-004"

	// Permission errors (PERM-001 to PERM-099)
	ErrCodePermissionDenied  ErrorCode = "PERM-001"
	ErrCodeUnknownPermission ErrorCode = "PERM-002"

	// Storage errors (STORAGE-001 to STORAGE-099)
	ErrCodeStorageOpen    ErrorCode = "STORAGE-001"
	ErrCodeStorageRead    ErrorCode = "STORAGE-002"
	ErrCodeStorageWrite   ErrorCode = "STORAGE-003"
	ErrCodeStorageKeyFile ErrorCode = "STORAGE-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"
	ErrCodeConfigKey      ErrorCode = "CONFIG-003"

	// Report errors (REPORT-001 to REPORT-099)
	ErrCodeReportData   ErrorCode = "REPORT-001"
	ErrCodeReportRender ErrorCode = "REPORT-002"
	ErrCodeReportFormat ErrorCode = "REPORT-003"

	// Diagnostics errors (HEALTH-001 to HEALTH-099)
	ErrCodeHealthCheck ErrorCode = "HEALTH-001"
)

// ClubhubError represents an enhanced error with code, suggestions, and documentation
type ClubhubError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *ClubhubError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ClubhubError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ClubhubError with the same code.
func (e *ClubhubError) Is(target error) bool {
	t, ok := target.(*ClubhubError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new ClubhubError
func New(code ErrorCode, message string) *ClubhubError {
	return &ClubhubError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ClubhubError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ClubhubError {
	return &ClubhubError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ClubhubError) WithSuggestion(suggestion string) *ClubhubError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ClubhubError) WithSuggestions(suggestions ...string) *ClubhubError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *ClubhubError) WithDocs(url string) *ClubhubError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first ClubhubError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if ce, ok := err.(*ClubhubError); ok {
			return ce.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Common error constructors for frequently used errors

// NewNotSignedInError is returned by commands that need an authenticated session.
func NewNotSignedInError() *ClubhubError {
	return New(ErrCodeAuthRequired, "not signed in").
		WithSuggestion("Run 'clubhub auth login' to sign in").
		WithSuggestion("Run 'clubhub auth register' if you do not have an account yet")
}

// NewSessionExpiredError reports that the server rejected the stored session.
func NewSessionExpiredError(cause error) *ClubhubError {
	return Wrap(ErrCodeAuthExpired, "session is no longer valid", cause).
		WithSuggestion("Run 'clubhub auth login' to sign in again")
}

// NewNoTeamSelectedError reports a team-scoped command without an active team.
func NewNoTeamSelectedError() *ClubhubError {
	return New(ErrCodeNoTeamSelected, "no team selected").
		WithSuggestion("Run 'clubhub team list' to see your teams").
		WithSuggestion("Run 'clubhub team switch <team-id>' to select one").
		WithSuggestion("Pass --team <team-id> to target a team explicitly")
}

// NewAPIUnreachableError wraps transport failures talking to the club API.
func NewAPIUnreachableError(baseURL string, cause error) *ClubhubError {
	return Wrap(ErrCodeAPIUnreachable, fmt.Sprintf("cannot reach club API at %s", baseURL), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify api_url with 'clubhub config view'").
		WithSuggestion("Override the endpoint with CLUBHUB_API_URL")
}

// NewValidationError reports a payload rejected by the local API contract.
func NewValidationError(schema string, cause error) *ClubhubError {
	return Wrap(ErrCodeAPIValidation, fmt.Sprintf("invalid %s", schema), cause).
		WithSuggestion("Check the required fields and their formats")
}

// NewPermissionDeniedError reports an action the current role may not perform.
func NewPermissionDeniedError(role, permission string) *ClubhubError {
	if role == "" {
		role = "(none)"
	}
	return New(ErrCodePermissionDenied, fmt.Sprintf("role %s is not allowed to %s", role, permission)).
		WithSuggestion("Run 'clubhub can' to list the capabilities of your role").
		WithSuggestion("Ask an organization owner to grant the permission to your role")
}

// NewConfigInvalidError reports a configuration file that failed validation.
func NewConfigInvalidError(path string, cause error) *ClubhubError {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", path), cause).
		WithSuggestion("Run 'clubhub config view' to inspect the effective configuration").
		WithSuggestion("Remove the file to fall back to defaults")
}

// NewStorageOpenError reports that the local state database could not be opened.
func NewStorageOpenError(path string, cause error) *ClubhubError {
	return Wrap(ErrCodeStorageOpen, fmt.Sprintf("cannot open local storage: %s", path), cause).
		WithSuggestion("Check permissions on the clubhub home directory").
		WithSuggestion("Set CLUBHUB_HOME to use a different directory")
}
