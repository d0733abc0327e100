// Package fetcher downloads a page server-side and reports where the request
// actually ended up.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dtnitsch/markdownizer/pkg/normalizer"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 3
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes = 20 << 20
)

// Result is the outcome of one fetch. Fetch never returns an error; failures
// set Success=false and Error.
type Result struct {
	Success       bool   `yaml:"success" json:"success"`
	HTML          string `yaml:"-" json:"-"`
	StatusCode    int    `yaml:"status_code" json:"status_code"`
	ContentType   string `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	FinalURL      string `yaml:"final_url" json:"final_url"`
	OriginalURL   string `yaml:"original_url" json:"original_url"`
	WasRedirected bool   `yaml:"was_redirected" json:"was_redirected"`
	Error         string `yaml:"error,omitempty" json:"error,omitempty"`
}

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	Logger     *slog.Logger
}

type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		client:     &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		backoff:    500 * time.Millisecond,
		logger:     opts.Logger,
	}
}

// Fetch GETs rawURL, following redirects. Transport errors and 5xx answers
// are retried up to MaxRetries times with a linear backoff. Any other status
// is a successful fetch; the caller decides what a 404 page is worth.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	res := Result{OriginalURL: rawURL, FinalURL: rawURL}

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Debug("retrying fetch", "url", normalizer.RedactTokens(rawURL), "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				res.Error = ctx.Err().Error()
				return res
			case <-time.After(time.Duration(attempt) * f.backoff):
			}
		}

		out, err := f.do(ctx, rawURL)
		if err == nil {
			return out
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	res.Error = lastErr.Error()
	return res
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("server error, status code: %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	return false
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{}, &statusError{code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), contentType)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode response body: %w", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	final := resp.Request.URL.String()
	return Result{
		Success:       true,
		HTML:          string(data),
		StatusCode:    resp.StatusCode,
		ContentType:   contentType,
		FinalURL:      final,
		OriginalURL:   rawURL,
		WasRedirected: IsSignificantRedirect(rawURL, final),
	}, nil
}
