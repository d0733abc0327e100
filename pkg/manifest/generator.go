package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
	"github.com/dtnitsch/markdownizer/pkg/storage"
	"gopkg.in/yaml.v3"
)

const (
	aggregateKeywords = 25
	perURLKeywords    = 10
)

// FetchResult is the outcome of converting a single URL.
type FetchResult struct {
	URL           string
	FilePath      string
	Outcome       *pipeline.Outcome
	Error         error
	ErrorType     string
	WordCounts    map[string]int
	FileSizeBytes int64
}

// Generate builds the manifest for a run. wordCounts are the counts reduced
// over every converted page.
func Generate(results []FetchResult, wordCounts map[string]int, elapsed time.Duration, now time.Time) SummaryManifest {
	m := SummaryManifest{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Results:     make([]URLSummary, 0, len(results)),
		Stats: Stats{
			TotalURLs:        len(results),
			TotalTimeSeconds: elapsed.Seconds(),
			TopKeywords:      analytics.TopKeywords(wordCounts, aggregateKeywords),
		},
	}

	for _, r := range results {
		m.Results = append(m.Results, summarize(r))
		if r.Error != nil {
			m.Stats.Failed++
			continue
		}
		m.Stats.Successful++
		if r.Outcome.Bypassed() {
			m.Stats.Bypassed++
		}
		if r.Outcome.Chosen == models.SourceServer {
			m.Stats.ServerChosen++
		}
	}

	switch {
	case m.Stats.Failed == 0:
		m.Status = "success"
	case m.Stats.Successful == 0:
		m.Status = "failed"
	default:
		m.Status = "partial_failure"
	}
	return m
}

func summarize(r FetchResult) URLSummary {
	s := URLSummary{URL: r.URL, FilePath: r.FilePath, SizeBytes: r.FileSizeBytes}
	if r.Error != nil {
		s.Status = "failed"
		s.Error = r.Error.Error()
		s.ErrorType = r.ErrorType
		return s
	}

	d := pipeline.Diagnostics(r.Outcome)
	s.Status = "success"
	s.Chosen = string(r.Outcome.Chosen)
	s.BypassReason = d.BypassReason
	s.ScoreExtension = d.ScoreExtension
	s.ScoreServer = d.ScoreServer
	s.CodeBlocks = d.CodeBlocks
	s.Language = d.Language
	s.RequestID = d.RequestID
	if r.WordCounts != nil {
		s.TopKeywords = analytics.TopKeywords(r.WordCounts, perURLKeywords)
	}
	return s
}

// Save writes the manifest as summary-<date>.yaml in the storage directory
// and returns its path.
func Save(m SummaryManifest, s *storage.Storage, date time.Time) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("summary-%s.yaml", date.Format("2006-01-02")))
	if err := s.SaveFile(path, data); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}
	return path, nil
}
