// Package parser runs generic main-content extraction over server-fetched
// HTML. It is the server candidate's only source.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ErrNoContent is reported when readability finds no article.
var ErrNoContent = errors.New("readability returned no content")

// Extraction is the outcome of one generic extraction. Extract never returns
// an error; failures set Success=false and Error.
type Extraction struct {
	Success   bool   `yaml:"success" json:"success"`
	Text      string `yaml:"-" json:"-"`
	HTML      string `yaml:"-" json:"-"`
	CharCount int    `yaml:"char_count" json:"char_count"`
	WordCount int    `yaml:"word_count" json:"word_count"`
	Title     string `yaml:"title,omitempty" json:"title,omitempty"`
	Byline    string `yaml:"byline,omitempty" json:"byline,omitempty"`
	Excerpt   string `yaml:"excerpt,omitempty" json:"excerpt,omitempty"`
	Error     string `yaml:"error,omitempty" json:"error,omitempty"`
}

type Parser struct{}

// Extract uses go-readability to find the main article in html. The cleaned
// article HTML becomes Extraction.HTML; its text, with blank-line runs
// collapsed, becomes Extraction.Text.
func (p *Parser) Extract(html, rawURL string) Extraction {
	article, text, err := p.readable(html, rawURL)
	if err != nil {
		return Extraction{Error: fmt.Sprintf("extraction error: %v", err)}
	}

	return Extraction{
		Success:   true,
		Text:      text,
		HTML:      article.Content,
		CharCount: len([]rune(text)),
		WordCount: len(strings.Fields(text)),
		Title:     normalizeText(article.Title),
		Byline:    normalizeText(article.Byline),
		Excerpt:   normalizeText(article.Excerpt),
	}
}

func (p *Parser) readable(html, rawURL string) (readability.Article, string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return readability.Article{}, "", fmt.Errorf("failed to parse url: %w", err)
	}

	rp := readability.NewParser()
	article, err := rp.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return readability.Article{}, "", err
	}
	if strings.TrimSpace(article.Content) == "" {
		return readability.Article{}, "", ErrNoContent
	}

	text := normalizeLines(article.TextContent)
	if text == "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
		if err != nil {
			return readability.Article{}, "", fmt.Errorf("failed to parse article html: %w", err)
		}
		text = normalizeLines(doc.Text())
	}
	if text == "" {
		return readability.Article{}, "", ErrNoContent
	}
	return article, text, nil
}

// normalizeText cleans up a string by trimming space and joining its lines
// with single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// normalizeLines trims every line and keeps at most one blank line between
// paragraphs.
func normalizeLines(input string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
