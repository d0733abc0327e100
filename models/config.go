// Package models defines data structures for configuration, ingest requests
// and comparison candidates.
package models

import "time"

// Config is the full runtime configuration. Values come from a YAML file,
// then MARKDOWNIZER_* environment variables, then CLI flags.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	HTTP       HTTPConfig       `yaml:"http"`
	Probe      ProbeConfig      `yaml:"probe"`
	Comparison ComparisonConfig `yaml:"comparison"`
	Storage    StorageConfig    `yaml:"storage"`
}

type ServerConfig struct {
	Host           string        `yaml:"host" validate:"required"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" validate:"min=0,max=10"`
	UserAgent  string        `yaml:"user_agent" validate:"required"`
}

type ProbeConfig struct {
	Enabled bool `yaml:"enabled"`
	// Headless is false only when debugging the probe locally.
	Headless  bool          `yaml:"headless"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	Threshold int           `yaml:"threshold" validate:"min=0"` // probe when server text is shorter
	// Static analyzes a plain HTTP fetch instead of driving Chrome.
	Static bool `yaml:"static"`
	// RemoteURL is the DevTools WebSocket of an already running Chrome.
	RemoteURL string `yaml:"remote_url"`
}

type ComparisonConfig struct {
	ScoreThreshold   float64 `yaml:"score_threshold" validate:"gte=0,lte=1"`
	BlockerPenalty   float64 `yaml:"blocker_penalty" validate:"gte=0,lte=1"`
	MaxContentLength int     `yaml:"max_content_length" validate:"min=1"`
}

type StorageConfig struct {
	HistoryEnabled bool   `yaml:"history_enabled"`
	DBPath         string `yaml:"db_path"`
	OutputDir      string `yaml:"output_dir"`
}

// ConvertConfig holds runtime configuration for the convert command.
// All values come from CLI flags.
type ConvertConfig struct {
	URLs          []string
	WorkerCount   int
	ExtensionHTML string
	OutputDir     string
	NoProbe       bool
}
