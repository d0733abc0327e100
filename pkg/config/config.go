// Package config loads models.Config: defaults, then an optional YAML file,
// then MARKDOWNIZER_* environment variables. Callers apply CLI flags last
// and call Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/comparator"
	"github.com/dtnitsch/markdownizer/pkg/fetcher"
	"github.com/dtnitsch/markdownizer/pkg/probe"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "MARKDOWNIZER_"

// Default returns the built-in configuration.
func Default() models.Config {
	return models.Config{
		Server: models.ServerConfig{
			Host:           "127.0.0.1",
			Port:           5050,
			RequestTimeout: 120 * time.Second,
		},
		HTTP: models.HTTPConfig{
			Timeout:    fetcher.DefaultTimeout,
			MaxRetries: fetcher.DefaultMaxRetries,
			UserAgent:  fetcher.DefaultUserAgent,
		},
		Probe: models.ProbeConfig{
			Enabled:   true,
			Headless:  true,
			Timeout:   probe.DefaultTimeout,
			Threshold: 500,
		},
		Comparison: models.ComparisonConfig{
			ScoreThreshold:   comparator.DefaultThreshold,
			BlockerPenalty:   comparator.DefaultBlockerPenalty,
			MaxContentLength: comparator.DefaultMaxLen,
		},
		Storage: models.StorageConfig{
			HistoryEnabled: true,
			OutputDir:      "markdown",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (models.Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type envSetter func(cfg *models.Config, v string) error

func setString(field func(*models.Config) *string) envSetter {
	return func(cfg *models.Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func setInt(field func(*models.Config) *int) envSetter {
	return func(cfg *models.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func setFloat(field func(*models.Config) *float64) envSetter {
	return func(cfg *models.Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(cfg) = f
		return nil
	}
}

func setBool(field func(*models.Config) *bool) envSetter {
	return func(cfg *models.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

// setDuration accepts Go durations ("15s") or bare seconds ("15").
func setDuration(field func(*models.Config) *time.Duration) envSetter {
	return func(cfg *models.Config, v string) error {
		if secs, err := strconv.Atoi(v); err == nil {
			*field(cfg) = time.Duration(secs) * time.Second
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}
}

var envOverrides = []struct {
	name string
	set  envSetter
}{
	{"SERVER_HOST", setString(func(c *models.Config) *string { return &c.Server.Host })},
	{"SERVER_PORT", setInt(func(c *models.Config) *int { return &c.Server.Port })},
	{"SERVER_REQUEST_TIMEOUT", setDuration(func(c *models.Config) *time.Duration { return &c.Server.RequestTimeout })},
	{"HTTP_TIMEOUT", setDuration(func(c *models.Config) *time.Duration { return &c.HTTP.Timeout })},
	{"HTTP_MAX_RETRIES", setInt(func(c *models.Config) *int { return &c.HTTP.MaxRetries })},
	{"HTTP_USER_AGENT", setString(func(c *models.Config) *string { return &c.HTTP.UserAgent })},
	{"PROBE_ENABLED", setBool(func(c *models.Config) *bool { return &c.Probe.Enabled })},
	{"PROBE_HEADLESS", setBool(func(c *models.Config) *bool { return &c.Probe.Headless })},
	{"PROBE_TIMEOUT", setDuration(func(c *models.Config) *time.Duration { return &c.Probe.Timeout })},
	{"PROBE_THRESHOLD", setInt(func(c *models.Config) *int { return &c.Probe.Threshold })},
	{"PROBE_STATIC", setBool(func(c *models.Config) *bool { return &c.Probe.Static })},
	{"PROBE_REMOTE_URL", setString(func(c *models.Config) *string { return &c.Probe.RemoteURL })},
	{"SCORE_THRESHOLD", setFloat(func(c *models.Config) *float64 { return &c.Comparison.ScoreThreshold })},
	{"BLOCKER_PENALTY", setFloat(func(c *models.Config) *float64 { return &c.Comparison.BlockerPenalty })},
	{"MAX_CONTENT_LENGTH", setInt(func(c *models.Config) *int { return &c.Comparison.MaxContentLength })},
	{"HISTORY_ENABLED", setBool(func(c *models.Config) *bool { return &c.Storage.HistoryEnabled })},
	{"DB_PATH", setString(func(c *models.Config) *string { return &c.Storage.DBPath })},
	{"OUTPUT_DIR", setString(func(c *models.Config) *string { return &c.Storage.OutputDir })},
}

// ApplyEnv overlays MARKDOWNIZER_* variables found by lookup onto cfg.
// Every malformed value is reported.
func ApplyEnv(cfg *models.Config, lookup func(string) (string, bool)) error {
	var errs []error
	for _, o := range envOverrides {
		v, ok := lookup(EnvPrefix + o.name)
		if !ok {
			continue
		}
		if err := o.set(cfg, strings.TrimSpace(v)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, o.name, v, err))
		}
	}
	return errors.Join(errs...)
}

var validate = validator.New()

// Validate checks cfg against its struct tags.
func Validate(cfg models.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			ve := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", ve.Namespace(), ve.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
