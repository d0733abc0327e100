// Package markdown turns the winning HTML into Markdown. Code regions are
// lifted out before conversion and fenced back in afterwards, so highlighter
// markup never reaches the generic converter.
package markdown

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/markdownizer/pkg/codeblock"
	"github.com/microcosm-cc/bluemonday"
)

// ErrEmptyHTML is returned when there is nothing to convert.
var ErrEmptyHTML = errors.New("empty html")

// noiseSelector lists page chrome removed before conversion.
const noiseSelector = "script, style, nav, footer, header, aside, iframe"

// fallbackPreview is how much raw HTML the fallback block shows.
const fallbackPreview = 1000

var escapedPlaceholder = regexp.MustCompile(regexp.QuoteMeta(`PLACEHOLDER\_`))

// Converter renders HTML as Markdown. It is safe for concurrent use.
type Converter struct {
	md     *converter.Converter
	policy *bluemonday.Policy

	// Header prepends the title / source / captured-at block.
	Header bool
	now    func() time.Time
}

// NewConverter returns a Converter that writes the metadata header.
func NewConverter() *Converter {
	return &Converter{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		policy: newPolicy(),
		Header: true,
		now:    time.Now,
	}
}

// newPolicy is the UGC policy plus the attributes that carry code language
// hints. Extension HTML comes from arbitrary pages and is sanitized before
// conversion.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\- ]+$`)).OnElements("pre", "code")
	p.AllowAttrs("data-language", "data-lang").OnElements("pre", "code")
	return p
}

// Convert strips page chrome, protects code blocks, sanitizes and converts
// html to Markdown. pageURL resolves relative links and images.
func (c *Converter) Convert(html, title, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", ErrEmptyHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find(noiseSelector).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}

	protected, blocks := codeblock.Extract(cleaned)
	safe := c.policy.Sanitize(protected)

	md, err := c.md.ConvertString(safe, converter.WithDomain(pageURL))
	if err != nil {
		return "", fmt.Errorf("failed to convert html to markdown: %w", err)
	}
	md = escapedPlaceholder.ReplaceAllLiteralString(md, codeblock.PlaceholderPrefix)
	md = strings.TrimSpace(codeblock.Reinsert(md, blocks))

	if !c.Header {
		return md, nil
	}
	return c.header(title, pageURL) + md, nil
}

func (c *Converter) header(title, pageURL string) string {
	ts := c.now().UTC().Format("2006-01-02 15:04:05 UTC")
	return fmt.Sprintf("# %s\n\n**Source**: %s  \n**Captured**: %s\n\n---\n\n", title, pageURL, ts)
}

// ConvertOrFallback never fails: when conversion errors it returns a
// diagnostic block holding the error and a preview of the raw HTML.
func (c *Converter) ConvertOrFallback(html, title, pageURL string) string {
	md, err := c.Convert(html, title, pageURL)
	if err == nil {
		return md
	}
	return Fallback(html, title, pageURL, err)
}

// Fallback renders the block used when conversion fails.
func Fallback(html, title, pageURL string, err error) string {
	preview := html
	if len(preview) > fallbackPreview {
		preview = preview[:fallbackPreview]
		for !utf8.ValidString(preview) {
			preview = preview[:len(preview)-1]
		}
	}
	return fmt.Sprintf("# %s\n\n**Source**: %s  \n**Error**: Failed to convert to Markdown: %v\n\n```\n%s...\n```\n",
		title, pageURL, err, preview)
}
