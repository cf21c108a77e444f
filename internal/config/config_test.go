package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("CLUB_HOST", "api.club.test")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://${CLUB_HOST}
timeout: 5s
max_retries: 4
log:
  level: info
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.club.test", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, 50, cfg.PageSize, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv(EnvAPIURL, "http://override:9000")
	t.Setenv(EnvLogLevel, "debug")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.APIURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: not a url\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.APIURL = "https://clubs.example.org"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.APIURL = "/api" }},
		{"bad scheme", func(c *Config) { c.APIURL = "ftp://host" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("timeout", "10s"))
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	require.NoError(t, cfg.Set("storage.path", "/tmp/x.db"))
	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", path)

	err = cfg.Set("nope", "1")
	assert.Equal(t, errors.ErrCodeConfigKey, errors.CodeOf(err))

	err = cfg.Set("max_retries", "many")
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
}

func TestGet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("retry_delay", "2s"))

	for _, key := range Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
	v, err := cfg.Get("retry_delay")
	require.NoError(t, err)
	assert.Equal(t, "2s", v)

	_, err = cfg.Get("nope")
	assert.Equal(t, errors.ErrCodeConfigKey, errors.CodeOf(err))
}

func TestDirHonoursEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, home, dir)

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), path)

	cfg := Default()
	db, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state.db"), db)
}
