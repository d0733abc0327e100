// Package caching keeps server-side fetches on disk for a while so repeated
// conversions of the same page skip the network.
package caching

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dtnitsch/markdownizer/pkg/fetcher"
	"github.com/dtnitsch/markdownizer/pkg/normalizer"
)

// Cache is a file-based cache with a TTL, keyed by URL.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates the cache directory if it does not exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl}, nil
}

func (c *Cache) key(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}

// Get returns the entry for url when it exists and has not expired.
func (c *Cache) Get(url string) ([]byte, bool) {
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil || time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) Set(url string, data []byte) error {
	filePath := filepath.Join(c.path, c.key(url))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

type source interface {
	Fetch(ctx context.Context, url string) fetcher.Result
}

// Fetcher serves fetches from a Cache and fills it from Next. Only
// successful fetches are stored; failures always go back to the network.
type Fetcher struct {
	Next   source
	Cache  *Cache
	Logger *slog.Logger
}

// cachedResult carries the body, which fetcher.Result hides from encoding.
type cachedResult struct {
	Result fetcher.Result `json:"result"`
	HTML   string         `json:"html"`
}

func (f *Fetcher) Fetch(ctx context.Context, url string) fetcher.Result {
	if data, ok := f.Cache.Get(url); ok {
		var cr cachedResult
		if err := json.Unmarshal(data, &cr); err == nil {
			f.log().Debug("fetch cache hit", "url", normalizer.RedactTokens(url))
			cr.Result.HTML = cr.HTML
			return cr.Result
		}
	}

	res := f.Next.Fetch(ctx, url)
	if !res.Success {
		return res
	}
	data, err := json.Marshal(cachedResult{Result: res, HTML: res.HTML})
	if err == nil {
		err = f.Cache.Set(url, data)
	}
	if err != nil {
		f.log().Warn("failed to cache fetch", "url", normalizer.RedactTokens(url), "error", err)
	}
	return res
}

func (f *Fetcher) log() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}
