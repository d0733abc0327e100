package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/comparator"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
	"github.com/dtnitsch/markdownizer/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var now = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func results() []FetchResult {
	return []FetchResult{
		{
			URL:      "https://example.com/a",
			FilePath: "out/example.com-a-2024-01-15.md",
			Outcome: &pipeline.Outcome{
				Kind:     pipeline.Arbitrated,
				Chosen:   models.SourceServer,
				Decision: &comparator.Decision{ScoreA: 0.1, ScoreB: 0.4},
			},
			WordCounts:    map[string]int{"go": 3, "install": 1},
			FileSizeBytes: 120,
		},
		{
			URL: "https://example.com/b",
			Outcome: &pipeline.Outcome{
				Kind:   pipeline.Bypassed,
				Reason: pipeline.ReasonCaptcha,
				Chosen: models.SourceExtension,
			},
		},
		{URL: "https://example.com/c", Error: errors.New("boom"), ErrorType: "convert_error"},
	}
}

func TestGenerate(t *testing.T) {
	m := Generate(results(), map[string]int{"go": 5, "docs": 2}, 2*time.Second, now)

	assert.Equal(t, "partial_failure", m.Status)
	assert.Equal(t, "2024-01-15T10:30:00Z", m.GeneratedAt)
	assert.Equal(t, Stats{
		TotalURLs:        3,
		Successful:       2,
		Failed:           1,
		Bypassed:         1,
		ServerChosen:     1,
		TotalTimeSeconds: 2,
		TopKeywords:      []string{"go:5", "docs:2"},
	}, m.Stats)

	require.Len(t, m.Results, 3)
	assert.Equal(t, URLSummary{
		URL:            "https://example.com/a",
		FilePath:       "out/example.com-a-2024-01-15.md",
		Status:         "success",
		Chosen:         "server_extraction",
		ScoreExtension: 0.1,
		ScoreServer:    0.4,
		SizeBytes:      120,
		TopKeywords:    []string{"go:3", "install:1"},
	}, m.Results[0])
	assert.Equal(t, "captcha", m.Results[1].BypassReason)
	assert.Equal(t, 1.0, m.Results[1].ScoreExtension)
	assert.Equal(t, "failed", m.Results[2].Status)
	assert.Equal(t, "boom", m.Results[2].Error)
}

func TestGenerateStatus(t *testing.T) {
	all := results()
	assert.Equal(t, "success", Generate(all[:2], nil, 0, now).Status)
	assert.Equal(t, "failed", Generate(all[2:], nil, 0, now).Status)
	assert.Equal(t, "success", Generate(nil, nil, 0, now).Status)
}

func TestSave(t *testing.T) {
	s := &storage.Storage{Dir: filepath.Join(t.TempDir(), "out")}
	m := Generate(results(), map[string]int{"go": 1}, 0, now)

	path, err := Save(m, s, now)
	require.NoError(t, err)
	assert.Equal(t, "summary-2024-01-15.yaml", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got SummaryManifest
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, m.Stats, got.Stats)
	assert.Len(t, got.Results, 3)
}
