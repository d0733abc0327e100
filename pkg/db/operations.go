package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dtnitsch/markdownizer/pkg/normalizer"
)

// InsertURL parses and inserts a URL, returning the url_id.
// If the URL already exists, returns the existing url_id. Credential-looking
// query values are masked before anything is stored.
func (db *DB) InsertURL(rawURL string) (int64, error) {
	rawURL = normalizer.RedactTokens(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	var existingID int64
	err = db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing URL: %w", err)
	}

	// Canonical URL is scheme + host + path, no query/fragment
	canonicalURL := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
		INSERT INTO urls (original_url, canonical_url, scheme, domain, path, fragment)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rawURL, canonicalURL, parsed.Scheme, parsed.Host, parsed.Path, parsed.Fragment)
	if err != nil {
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	urlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}

	if parsed.RawQuery != "" {
		params, err := url.ParseQuery(parsed.RawQuery)
		if err == nil {
			for key, values := range params {
				for _, value := range values {
					if _, err := tx.Exec(`
						INSERT INTO url_query_params (url_id, key, value)
						VALUES (?, ?, ?)
					`, urlID, key, value); err != nil {
						return 0, fmt.Errorf("failed to insert query param: %w", err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit URL: %w", err)
	}
	return urlID, nil
}

// GetURLID returns the url_id for a URL, or sql.ErrNoRows wrapped when it
// was never recorded.
func (db *DB) GetURLID(rawURL string) (int64, error) {
	var urlID int64
	err := db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", normalizer.RedactTokens(rawURL)).Scan(&urlID)
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// RecordAccess records a fetch attempt in url_accesses.
func (db *DB) RecordAccess(urlID int64, statusCode int, errorType string, success bool) error {
	_, err := db.Exec(`
		INSERT INTO url_accesses (url_id, status_code, error_type, success)
		VALUES (?, ?, ?, ?)
	`, urlID, statusCode, errorType, success)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// RecordFetch records a fetch attempt for rawURL, creating its URL row when
// needed.
func (db *DB) RecordFetch(rawURL string, statusCode int, errorType string, success bool) error {
	urlID, err := db.InsertURL(rawURL)
	if err != nil {
		return err
	}
	return db.RecordAccess(urlID, statusCode, errorType, success)
}

// AccessRecord represents a URL access attempt.
type AccessRecord struct {
	AccessID   int64
	AccessedAt time.Time
	StatusCode int
	ErrorType  string
	Success    bool
}

// GetLastAccess returns the most recent access record for a URL, or nil when
// the URL was never fetched.
func (db *DB) GetLastAccess(urlID int64) (*AccessRecord, error) {
	var record AccessRecord
	err := db.QueryRow(`
		SELECT access_id, accessed_at, status_code, error_type, success
		FROM url_accesses
		WHERE url_id = ?
		ORDER BY access_id DESC
		LIMIT 1
	`, urlID).Scan(&record.AccessID, &record.AccessedAt, &record.StatusCode, &record.ErrorType, &record.Success)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last access: %w", err)
	}
	return &record, nil
}

// NewNullString creates a sql.NullString from a string value.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
