package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeAuthInvalid, "test error message")

	if err.Code != ErrCodeAuthInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeAuthInvalid, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeStorageRead, "failed to read key", cause)

	if err.Code != ErrCodeStorageRead {
		t.Errorf("expected code %s, got %s", ErrCodeStorageRead, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *ClubhubError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeConfigInvalid, "invalid config"),
			wantCode: "CONFIG-002",
			wantMsg:  "invalid config",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeStorageWrite, "write failed", fmt.Errorf("disk full")),
			wantCode: "STORAGE-003",
			wantMsg:  "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrCodeAuthRequired, "not signed in").
		WithSuggestion("Sign in first")

	if len(err.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section")
	}
	if !strings.Contains(errStr, "Sign in first") {
		t.Errorf("error string should contain suggestion text")
	}
}

func TestWithDocs(t *testing.T) {
	docsURL := "https://github.com/felixgeelhaar/clubhub#auth"
	err := New(ErrCodeAuthExpired, "expired").WithDocs(docsURL)

	errStr := err.Error()
	if !strings.Contains(errStr, "Documentation:") || !strings.Contains(errStr, docsURL) {
		t.Errorf("error string should contain documentation section, got: %s", errStr)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("command failed: %w", NewNoTeamSelectedError())

	if !errors.Is(err, New(ErrCodeNoTeamSelected, "")) {
		t.Errorf("errors.Is should match on code")
	}
	if errors.Is(err, New(ErrCodeAuthRequired, "")) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewPermissionDeniedError("coach", "create_team"))

	if got := CodeOf(wrapped); got != ErrCodePermissionDenied {
		t.Errorf("expected %s, got %s", ErrCodePermissionDenied, got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %s", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("expected empty code for nil, got %s", got)
	}
}

func TestNewPermissionDeniedError(t *testing.T) {
	err := NewPermissionDeniedError("", "manage_players")

	if !strings.Contains(err.Message, "(none)") {
		t.Errorf("missing role should render as (none), got %q", err.Message)
	}
	if !strings.Contains(err.Message, "manage_players") {
		t.Errorf("message should name the permission, got %q", err.Message)
	}
	if len(err.Suggestions) == 0 {
		t.Errorf("expected suggestions")
	}
}

func TestNewAPIUnreachableError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewAPIUnreachableError("http://localhost:8000", cause)

	if err.Code != ErrCodeAPIUnreachable {
		t.Errorf("expected code %s, got %s", ErrCodeAPIUnreachable, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause should be reachable through errors.Is")
	}
	if !strings.Contains(err.Error(), "CLUBHUB_API_URL") {
		t.Errorf("suggestions should mention CLUBHUB_API_URL")
	}
}
