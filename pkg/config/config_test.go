package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 500, cfg.Probe.Threshold)
	assert.Equal(t, 0.05, cfg.Comparison.ScoreThreshold)
	assert.Equal(t, 0.3, cfg.Comparison.BlockerPenalty)
	assert.Equal(t, 50000, cfg.Comparison.MaxContentLength)
	assert.True(t, cfg.Storage.HistoryEnabled)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
http:
  timeout: 5s
probe:
  enabled: false
comparison:
  score_threshold: 0.1
storage:
  db_path: /tmp/history.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.False(t, cfg.Probe.Enabled)
	assert.Equal(t, 0.1, cfg.Comparison.ScoreThreshold)
	assert.Equal(t, "/tmp/history.db", cfg.Storage.DBPath)
	assert.NoError(t, Validate(cfg))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, env(map[string]string{
		"MARKDOWNIZER_SERVER_PORT":     "9000",
		"MARKDOWNIZER_HTTP_TIMEOUT":    "20",
		"MARKDOWNIZER_PROBE_TIMEOUT":   "1m",
		"MARKDOWNIZER_PROBE_HEADLESS":  "false",
		"MARKDOWNIZER_SCORE_THRESHOLD": "0.2",
		"MARKDOWNIZER_DB_PATH":         " /var/lib/md.db ",
		"UNRELATED":                    "x",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, time.Minute, cfg.Probe.Timeout)
	assert.False(t, cfg.Probe.Headless)
	assert.Equal(t, 0.2, cfg.Comparison.ScoreThreshold)
	assert.Equal(t, "/var/lib/md.db", cfg.Storage.DBPath)
}

func TestApplyEnvReportsEveryBadValue(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, env(map[string]string{
		"MARKDOWNIZER_SERVER_PORT":   "eighty",
		"MARKDOWNIZER_PROBE_ENABLED": "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MARKDOWNIZER_SERVER_PORT")
	assert.Contains(t, err.Error(), "MARKDOWNIZER_PROBE_ENABLED")
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.ErrorContains(t, Validate(cfg), "Port")

	cfg = Default()
	cfg.Comparison.BlockerPenalty = 1.5
	assert.ErrorContains(t, Validate(cfg), "BlockerPenalty")

	cfg = Default()
	cfg.HTTP.UserAgent = ""
	assert.ErrorContains(t, Validate(cfg), "UserAgent")
}
