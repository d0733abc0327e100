package storage

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/", "example.com-2024-01-15.md"},
		{"https://example.com/docs/intro", "example.com-docs-intro-2024-01-15.md"},
		{"https://example.com/a%20b/c?q=1", "example.com-a-b-c-2024-01-15.md"},
		{"http://localhost:8080/x", "localhost-x-2024-01-15.md"},
		{"not a url", "page-2024-01-15.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.url, day), tt.url)
	}

	long := FileName("https://example.com/"+strings.Repeat("segment/", 40), day)
	assert.LessOrEqual(t, len(long), maxNameLen+len("-2024-01-15.md"))
}

func TestSaveMarkdown(t *testing.T) {
	s := &Storage{Dir: filepath.Join(t.TempDir(), "out")}

	path, err := s.SaveMarkdown("https://example.com/post", "# Post\n", day)
	require.NoError(t, err)
	assert.Equal(t, "example.com-post-2024-01-15.md", filepath.Base(path))

	data, err := s.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Post\n", string(data))

	stats, err := s.GetFileStats(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.SizeBytes)

	_, err = s.GetFileStats(filepath.Join(s.Dir, "missing.md"))
	assert.Error(t, err)
}
