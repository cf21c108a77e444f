// Package config loads and saves the clubhub client configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/clubhub/internal/errors"
)

const (
	// EnvHome overrides the ~/.clubhub directory.
	EnvHome = "CLUBHUB_HOME"
	// EnvAPIURL overrides api_url.
	EnvAPIURL = "CLUBHUB_API_URL"
	// EnvLogLevel overrides log.level.
	EnvLogLevel = "CLUBHUB_LOG_LEVEL"

	fileName = "config.yaml"
)

// Config holds the clubhub configuration.
type Config struct {
	APIURL     string        `yaml:"api_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	PageSize   int           `yaml:"page_size"`
	Log        LogConfig     `yaml:"log"`
	Storage    StorageConfig `yaml:"storage"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"` // used by the dashboard
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	Path string `yaml:"path"` // sqlite database; empty means <home>/state.db
}

// Default returns a configuration with all defaults set.
func Default() Config {
	return Config{
		APIURL:     "http://localhost:8000",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		PageSize:   50,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Dir returns the clubhub home directory, honouring CLUBHUB_HOME.
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".clubhub"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config at path. A missing file yields defaults.
// Environment variables are expanded in the file and then applied as overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrCodeConfigNotFound, "failed to read config", err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, errors.NewConfigInvalidError(path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.NewConfigInvalidError(path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the config for invalid values.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute URL, got %q", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay cannot be negative")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// StoragePath returns the sqlite path, defaulting to <home>/state.db.
func (c Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// LogFilePath returns the dashboard log file, defaulting to <home>/clubhub.log.
func (c Config) LogFilePath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clubhub.log"), nil
}

// Keys lists the settable keys in dotted form.
func Keys() []string {
	return []string{"api_url", "timeout", "max_retries", "retry_delay", "page_size", "log.level", "log.format", "log.file", "storage.path"}
}

// Get returns the string form of a dotted key.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "timeout":
		return c.Timeout.String(), nil
	case "max_retries":
		return strconv.Itoa(c.MaxRetries), nil
	case "retry_delay":
		return c.RetryDelay.String(), nil
	case "page_size":
		return strconv.Itoa(c.PageSize), nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "log.file":
		return c.Log.File, nil
	case "storage.path":
		return c.Storage.Path, nil
	}
	return "", errors.New(errors.ErrCodeConfigKey, fmt.Sprintf("unknown config key %q", key)).
		WithSuggestion("Valid keys: " + strings.Join(Keys(), ", "))
}

// Set assigns a dotted key from its string form.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "api_url":
		c.APIURL = value
	case "timeout":
		c.Timeout, err = time.ParseDuration(value)
	case "max_retries":
		c.MaxRetries, err = strconv.Atoi(value)
	case "retry_delay":
		c.RetryDelay, err = time.ParseDuration(value)
	case "page_size":
		c.PageSize, err = strconv.Atoi(value)
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "log.file":
		c.Log.File = value
	case "storage.path":
		c.Storage.Path = value
	default:
		return errors.New(errors.ErrCodeConfigKey, fmt.Sprintf("unknown config key %q", key)).
			WithSuggestion("Valid keys: " + strings.Join(Keys(), ", "))
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", key), err)
	}
	if err := c.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", key), err)
	}
	return nil
}
