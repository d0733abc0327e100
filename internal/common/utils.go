// Package common holds helpers shared by the CLI commands: logger setup,
// configuration from flags, and URL cleanup for command-line input.
package common

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

	// Must start with http:// or https:// and have a valid domain
	// (alphanumeric, dots, hyphens, optional port). Can have path, query,
	// fragment.
	urlPattern = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:\d+)?([/?#][^\s]*)?$`)
)

// NewLogger builds the JSON stderr logger every command uses. --quiet keeps
// errors only; --verbose adds debug output.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		logLevel = slog.LevelError
	case c.Bool("verbose"):
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads --config (if set) and the environment, applies the flags
// shared by every command, and validates the result.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("db-path") {
		cfg.Storage.DBPath = c.String("db-path")
	}
	if c.Bool("no-history") {
		cfg.Storage.HistoryEnabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// UsageError prints msg and a help pointer to stderr and exits 1.
func UsageError(command, msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n\n", msg)
	fmt.Fprintf(os.Stderr, "Need help? Run: markdownizer %s --help\n", command)
	os.Exit(1)
}

var (
	trailingJunk = []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	leadingJunk  = []string{"(", "[", "<", "\"", "'"}
)

// SanitizeURL cleans up a URL pasted on the command line: surrounding
// whitespace and quotes, a Markdown link wrapper, trailing punctuation.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)
	if m := markdownLinkPattern.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}
	for _, c := range trailingJunk {
		cleaned = strings.TrimSuffix(cleaned, c)
	}
	for _, c := range leadingJunk {
		cleaned = strings.TrimPrefix(cleaned, c)
	}
	return strings.TrimSpace(cleaned)
}

// SanitizeAndValidateURLs returns the cleaned URLs that are usable http(s)
// URLs, and the raw inputs that are not.
func SanitizeAndValidateURLs(urls []string) (valid, invalid []string) {
	valid = make([]string, 0, len(urls))
	for _, rawURL := range urls {
		cleaned := SanitizeURL(rawURL)
		if !isFetchable(cleaned) {
			invalid = append(invalid, rawURL)
			continue
		}
		valid = append(valid, cleaned)
	}
	return valid, invalid
}

// isFetchable rejects empty input, literal spaces (must be pre-encoded as
// %20) and hosts carrying bracket or quote characters.
func isFetchable(u string) bool {
	if u == "" || strings.Contains(u, " ") || !urlPattern.MatchString(u) {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return !strings.ContainsAny(parsed.Host, "{}[]<>\"'")
}
