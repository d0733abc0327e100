package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// IngestRecord is one stored arbitration.
type IngestRecord struct {
	RequestID      string    `yaml:"request_id" json:"request_id"`
	URL            string    `yaml:"url" json:"url"`
	Title          string    `yaml:"title,omitempty" json:"title,omitempty"`
	Chosen         string    `yaml:"chosen" json:"chosen"`
	BypassReason   string    `yaml:"bypass_reason,omitempty" json:"bypass_reason,omitempty"`
	ScoreExtension float64   `yaml:"score_extension" json:"score_extension"`
	ScoreServer    float64   `yaml:"score_server" json:"score_server"`
	ScoreDiff      float64   `yaml:"score_diff" json:"score_diff"`
	Overlap        float64   `yaml:"overlap" json:"overlap"`
	BlockerPenalty float64   `yaml:"blocker_penalty" json:"blocker_penalty"`
	CodeBlocks     int       `yaml:"code_blocks" json:"code_blocks"`
	Language       string    `yaml:"language,omitempty" json:"language,omitempty"`
	TopKeywords    []string  `yaml:"top_keywords,omitempty" json:"top_keywords,omitempty"`
	MarkdownBytes  int       `yaml:"markdown_bytes" json:"markdown_bytes"`
	DurationMS     int64     `yaml:"duration_ms" json:"duration_ms"`
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
}

// IngestStats summarizes the whole history.
type IngestStats struct {
	Total         int            `yaml:"total" json:"total"`
	Extension     int            `yaml:"extension" json:"extension"`
	Server        int            `yaml:"server_extraction" json:"server_extraction"`
	Bypassed      int            `yaml:"bypassed" json:"bypassed"`
	ByReason      map[string]int `yaml:"by_reason,omitempty" json:"by_reason,omitempty"`
	AvgScoreDiff  float64        `yaml:"avg_score_diff" json:"avg_score_diff"`
	AvgDurationMS float64        `yaml:"avg_duration_ms" json:"avg_duration_ms"`
}

// RecordIngest stores rec, creating its URL row when needed.
func (db *DB) RecordIngest(rec IngestRecord) (int64, error) {
	if rec.RequestID == "" {
		return 0, errors.New("failed to record ingest: empty request id")
	}
	urlID, err := db.InsertURL(rec.URL)
	if err != nil {
		return 0, err
	}

	var keywords sql.NullString
	if len(rec.TopKeywords) > 0 {
		b, err := json.Marshal(rec.TopKeywords)
		if err != nil {
			return 0, fmt.Errorf("failed to encode keywords: %w", err)
		}
		keywords = NewNullString(string(b))
	}

	result, err := db.Exec(`
		INSERT INTO ingests (
			request_id, url_id, title, chosen, bypass_reason,
			score_extension, score_server, score_diff, overlap, blocker_penalty,
			code_block_count, language, top_keywords, markdown_bytes, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RequestID, urlID, NewNullString(rec.Title), rec.Chosen, NewNullString(rec.BypassReason),
		rec.ScoreExtension, rec.ScoreServer, rec.ScoreDiff, rec.Overlap, rec.BlockerPenalty,
		rec.CodeBlocks, NewNullString(rec.Language), keywords, rec.MarkdownBytes, rec.DurationMS)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ingest: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get ingest ID: %w", err)
	}
	return id, nil
}

const ingestColumns = `
	i.request_id, u.original_url, i.title, i.chosen, i.bypass_reason,
	i.score_extension, i.score_server, i.score_diff, i.overlap, i.blocker_penalty,
	i.code_block_count, i.language, i.top_keywords, i.markdown_bytes, i.duration_ms,
	i.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngest(row rowScanner) (IngestRecord, error) {
	var (
		rec                             IngestRecord
		title, reason, lang, keywordsJS sql.NullString
	)
	err := row.Scan(&rec.RequestID, &rec.URL, &title, &rec.Chosen, &reason,
		&rec.ScoreExtension, &rec.ScoreServer, &rec.ScoreDiff, &rec.Overlap, &rec.BlockerPenalty,
		&rec.CodeBlocks, &lang, &keywordsJS, &rec.MarkdownBytes, &rec.DurationMS,
		&rec.CreatedAt)
	if err != nil {
		return IngestRecord{}, err
	}

	rec.Title = title.String
	rec.BypassReason = reason.String
	rec.Language = lang.String
	if keywordsJS.Valid {
		if err := json.Unmarshal([]byte(keywordsJS.String), &rec.TopKeywords); err != nil {
			return IngestRecord{}, fmt.Errorf("failed to decode keywords: %w", err)
		}
	}
	return rec, nil
}

// ListIngests returns the most recent ingests, newest first.
func (db *DB) ListIngests(limit int) ([]IngestRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT `+ingestColumns+`
		FROM ingests i
		JOIN urls u ON u.url_id = i.url_id
		ORDER BY i.ingest_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingests: %w", err)
	}
	defer rows.Close()

	var out []IngestRecord
	for rows.Next() {
		rec, err := scanIngest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingest: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingests: %w", err)
	}
	return out, nil
}

// GetIngest returns the ingest with the given request id, or nil.
func (db *DB) GetIngest(requestID string) (*IngestRecord, error) {
	row := db.QueryRow(`
		SELECT `+ingestColumns+`
		FROM ingests i
		JOIN urls u ON u.url_id = i.url_id
		WHERE i.request_id = ?
	`, requestID)

	rec, err := scanIngest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingest: %w", err)
	}
	return &rec, nil
}

// IngestStats aggregates every stored ingest.
func (db *DB) IngestStats() (*IngestStats, error) {
	stats := &IngestStats{ByReason: map[string]int{}}

	var avgDiff, avgDuration sql.NullFloat64
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN chosen = 'extension' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN chosen = 'server_extraction' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN bypass_reason IS NOT NULL THEN 1 ELSE 0 END), 0),
			AVG(score_diff),
			AVG(duration_ms)
		FROM ingests
	`).Scan(&stats.Total, &stats.Extension, &stats.Server, &stats.Bypassed, &avgDiff, &avgDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ingests: %w", err)
	}
	stats.AvgScoreDiff = avgDiff.Float64
	stats.AvgDurationMS = avgDuration.Float64

	rows, err := db.Query(`
		SELECT bypass_reason, COUNT(*)
		FROM ingests
		WHERE bypass_reason IS NOT NULL
		GROUP BY bypass_reason
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to group bypass reasons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("failed to scan bypass reason: %w", err)
		}
		stats.ByReason[reason] = n
	}
	return stats, rows.Err()
}
