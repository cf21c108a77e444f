package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("console"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("xml"))
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "json", FormatJSON.String())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelWarn, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, os.Stderr, cfg.Output.Writer())
	assert.Equal(t, "clubhub", cfg.ServiceName)
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings("debug", "json")
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)

	cfg = FromSettings("", "")
	assert.Equal(t, DefaultConfig().Level, cfg.Level)
	assert.False(t, cfg.AddSource)
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clubhub.log")

	out, err := OutputFile(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Output = out
	New(cfg).Warn("written to file")
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestZeroOutputFallsBackToStderr(t *testing.T) {
	assert.Equal(t, os.Stderr, Output{}.Writer())
	assert.NoError(t, Output{}.Close())
}
