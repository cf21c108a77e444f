package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{
		Level:       level,
		Format:      FormatJSON,
		Output:      NewOutput(&buf),
		ServiceName: "clubhub",
	}), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", "team_id", "t1")
	entry := decode(t, buf)
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "t1", entry["team_id"])
	assert.Equal(t, "clubhub", entry["service"])
}

func TestTextFormatOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: NewOutput(&buf)})

	logger.Info("signed in", "user_id", "u1")

	assert.Contains(t, buf.String(), "msg=\"signed in\"")
	assert.Contains(t, buf.String(), "user_id=u1")
}

func TestWithError(t *testing.T) {
	t.Run("coded error", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelInfo)
		err := errors.Wrap(errors.ErrCodeStorageRead, "read failed", fmt.Errorf("disk gone")).
			WithSuggestion("check the disk")

		logger.WithError(fmt.Errorf("outer: %w", err)).Info("failed")

		entry := decode(t, buf)
		assert.Equal(t, "read failed", entry["error"])
		assert.Equal(t, "STORAGE-002", entry["error_code"])
		assert.Equal(t, "disk gone", entry["cause"])
		assert.Equal(t, []any{"check the disk"}, entry["suggestions"])
	})

	t.Run("plain error", func(t *testing.T) {
		logger, buf := newBufferLogger(LevelInfo)
		logger.WithError(fmt.Errorf("boom")).Info("failed")

		entry := decode(t, buf)
		assert.Equal(t, "boom", entry["error"])
		assert.NotContains(t, entry, "error_code")
	})

	t.Run("nil error", func(t *testing.T) {
		logger, _ := newBufferLogger(LevelInfo)
		assert.Same(t, logger, logger.WithError(nil))
	})
}

func TestLogError(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.LogError(errors.NewNotSignedInError().WithDocs("https://example.test/docs"))

	entry := decode(t, buf)
	assert.Equal(t, "operation failed", entry["msg"])
	assert.Equal(t, "AUTH-001", entry["error_code"])
	assert.Equal(t, "not signed in", entry["error_message"])
	assert.Equal(t, "https://example.test/docs", entry["docs_url"])

	buf.Reset()
	logger.LogError(nil)
	assert.Zero(t, buf.Len())
}

func TestWithContextAddsRequestID(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)
	ctx := ContextWithRequestID(context.Background(), "req-123")

	logger.WithContext(ctx).Info("request")
	assert.Equal(t, "req-123", decode(t, buf)["request_id"])

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestWithGroup(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.WithGroup("session").Info("loaded", "team_id", "t2")

	entry := decode(t, buf)
	group, ok := entry["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "t2", group["team_id"])
}

func TestEnabled(t *testing.T) {
	logger, _ := newBufferLogger(LevelWarn)

	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("dropped") })
}
