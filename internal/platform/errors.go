package platform

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any 401 APIError via errors.Is.
var ErrUnauthorized = stderrors.New("unauthorized")

// APIError is a non-2xx response from the club API.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Is reports whether target is ErrUnauthorized and e is a 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsUnauthorized reports whether err is an Unauthorized API response.
func IsUnauthorized(err error) bool {
	return stderrors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
