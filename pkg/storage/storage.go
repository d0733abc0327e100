// Package storage writes converted Markdown documents to disk.
package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// maxNameLen bounds the host-path part of a file name.
const maxNameLen = 120

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Storage struct {
	Dir string
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// FileName derives "<host>-<path>-<date>.md" from a page URL. Anything that
// is not a letter, digit, dot, dash or underscore becomes a dash.
func FileName(rawURL string, date time.Time) string {
	name := "page"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = strings.TrimPrefix(u.Hostname(), "www.")
		if p := strings.Trim(u.Path, "/"); p != "" {
			name += "-" + p
		}
	}
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "-"), "-")
	if len(name) > maxNameLen {
		name = strings.TrimRight(name[:maxNameLen], "-")
	}
	return fmt.Sprintf("%s-%s.md", name, date.Format("2006-01-02"))
}

// SaveMarkdown writes md for rawURL under Dir and returns the path.
func (s *Storage) SaveMarkdown(rawURL, md string, date time.Time) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, FileName(rawURL, date))
	if err := s.SaveFile(path, []byte(md)); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

// GetFileStats returns metadata about a file using os.Stat.
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}
	return &FileStats{SizeBytes: info.Size(), ModTime: info.ModTime()}, nil
}
