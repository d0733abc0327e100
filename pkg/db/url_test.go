package db

import (
	"testing"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return database
}

func TestInsertURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"simple HTTPS URL", "https://example.com"},
		{"URL with path", "https://example.com/path/to/page"},
		{"URL with query params", "https://example.com/search?q=test&lang=en"},
		{"URL with fragment", "https://example.com/page#section"},
		{"duplicate URL returns same ID", "https://example.com"},
	}

	var firstID int64
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urlID, err := db.InsertURL(tt.url)
			if err != nil {
				t.Fatalf("InsertURL() error = %v", err)
			}
			if urlID == 0 {
				t.Error("InsertURL() returned 0 ID")
			}
			if i == 0 {
				firstID = urlID
			}
			if i == len(tests)-1 && urlID != firstID {
				t.Errorf("Duplicate URL got different ID: got %d, want %d", urlID, firstID)
			}
		})
	}
}

func TestInsertURL_ParsesComponents(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://go.dev/doc/effective_go?version=1.22#names")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	var canonical, scheme, domain, path, fragment string
	err = db.QueryRow(`
		SELECT canonical_url, scheme, domain, path, fragment
		FROM urls WHERE url_id = ?
	`, urlID).Scan(&canonical, &scheme, &domain, &path, &fragment)
	if err != nil {
		t.Fatalf("failed to query URL: %v", err)
	}

	want := map[string][2]string{
		"canonical": {canonical, "https://go.dev/doc/effective_go"},
		"scheme":    {scheme, "https"},
		"domain":    {domain, "go.dev"},
		"path":      {path, "/doc/effective_go"},
		"fragment":  {fragment, "names"},
	}
	for field, pair := range want {
		if pair[0] != pair[1] {
			t.Errorf("%s = %q, want %q", field, pair[0], pair[1])
		}
	}
}

func TestInsertURL_RedactsCredentials(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://example.com/feed?token=s3cr3t&page=2")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	var stored string
	if err := db.QueryRow("SELECT original_url FROM urls WHERE url_id = ?", urlID).Scan(&stored); err != nil {
		t.Fatalf("failed to query URL: %v", err)
	}
	if stored != "https://example.com/feed?token=[REDACTED]&page=2" {
		t.Errorf("original_url = %q, credentials not masked", stored)
	}

	var value string
	if err := db.QueryRow("SELECT value FROM url_query_params WHERE url_id = ? AND key = 'token'", urlID).Scan(&value); err != nil {
		t.Fatalf("failed to query param: %v", err)
	}
	if value != "[REDACTED]" {
		t.Errorf("token param = %q, want [REDACTED]", value)
	}

	again, err := db.GetURLID("https://example.com/feed?token=other&page=2")
	if err != nil || again != urlID {
		t.Errorf("GetURLID() = %d, %v; want %d", again, err, urlID)
	}
}

func TestInsertURL_QueryParams(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://example.com/search?q=golang&lang=en&limit=10")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	rows, err := db.Query("SELECT key, value FROM url_query_params WHERE url_id = ? ORDER BY key", urlID)
	if err != nil {
		t.Fatalf("failed to query params: %v", err)
	}
	defer rows.Close()

	expected := map[string]string{"lang": "en", "limit": "10", "q": "golang"}
	got := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			t.Fatalf("failed to scan row: %v", err)
		}
		got[key] = value
	}

	if len(got) != len(expected) {
		t.Errorf("param count = %d, want %d", len(got), len(expected))
	}
	for k, v := range expected {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestGetURLID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	wantID, err := db.InsertURL("https://example.com/test")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	gotID, err := db.GetURLID("https://example.com/test")
	if err != nil {
		t.Fatalf("GetURLID() error = %v", err)
	}
	if gotID != wantID {
		t.Errorf("GetURLID() = %d, want %d", gotID, wantID)
	}

	if _, err := db.GetURLID("https://nonexistent.com"); err == nil {
		t.Error("GetURLID() with non-existent URL should return error")
	}
}

func TestAccesses(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	page1, _ := db.InsertURL("https://example.com/page1")
	page2, _ := db.InsertURL("https://example.com/page2")

	record, err := db.GetLastAccess(page1)
	if err != nil || record != nil {
		t.Fatalf("GetLastAccess() on fresh URL = %v, %v; want nil, nil", record, err)
	}

	for _, a := range []struct {
		urlID   int64
		status  int
		errType string
		ok      bool
	}{
		{page1, 200, "", true},
		{page1, 0, "fetch_failed", false},
		{page1, 503, "", true},
		{page2, 404, "", true},
	} {
		if err := db.RecordAccess(a.urlID, a.status, a.errType, a.ok); err != nil {
			t.Fatalf("RecordAccess() failed: %v", err)
		}
	}

	last, err := db.GetLastAccess(page1)
	if err != nil {
		t.Fatalf("GetLastAccess() failed: %v", err)
	}
	if last.StatusCode != 503 || !last.Success {
		t.Errorf("last access = %+v, want status 503 success", last)
	}

	last, _ = db.GetLastAccess(page2)
	if last.StatusCode != 404 {
		t.Errorf("page2 status = %d, want 404", last.StatusCode)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM url_accesses WHERE url_id = ?", page1).Scan(&count)
	if count != 3 {
		t.Errorf("page1 has %d accesses, want 3", count)
	}
}

func TestRecordFetch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.RecordFetch("https://example.com/fetched", 0, "fetch-failed", false); err != nil {
		t.Fatalf("RecordFetch() failed: %v", err)
	}
	if err := db.RecordFetch("https://example.com/fetched", 200, "", true); err != nil {
		t.Fatalf("RecordFetch() failed: %v", err)
	}

	urlID, err := db.GetURLID("https://example.com/fetched")
	if err != nil {
		t.Fatalf("GetURLID() failed: %v", err)
	}
	last, err := db.GetLastAccess(urlID)
	if err != nil {
		t.Fatalf("GetLastAccess() failed: %v", err)
	}
	if last.StatusCode != 200 || !last.Success {
		t.Errorf("last access = %+v, want status 200 success", last)
	}
}
