package ux

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to plain errors whose message is recognisable.
// Errors that already carry suggestions are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "Suggestions:") {
		return err
	}

	switch {
	case strings.Contains(errMsg, "connection refused"), strings.Contains(errMsg, "no such host"):
		return NewErrorWithSuggestion(err,
			"Check that the club API is running and api_url is correct ('clubhub config view')")
	case strings.Contains(errMsg, "context deadline exceeded"), strings.Contains(errMsg, "Client.Timeout"):
		return NewErrorWithSuggestion(err,
			"The API did not answer in time. Raise the limit with 'clubhub config set timeout 60s'")
	case strings.Contains(errMsg, "certificate"):
		return NewErrorWithSuggestion(err,
			"TLS verification failed. Check the api_url scheme and the server certificate")
	case strings.Contains(errMsg, "database is locked"):
		return NewErrorWithSuggestion(err,
			"Another clubhub process is using the local state. Close it and try again")
	}

	return err
}
