// Package codeblock lifts source-code regions out of raw HTML before lossy
// cleanup and puts them back, fenced, once the page has been converted.
//
// Blocks live in an ordered slice. A block's placeholder is just its index
// rendered as PLACEHOLDER_<n>, which survives readability extraction and
// Markdown conversion untouched. When the page already contains text of that
// shape, numbering starts above the highest n found, so literal page text is
// never swapped for code.
package codeblock

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// PlaceholderPrefix starts every placeholder token.
const PlaceholderPrefix = "PLACEHOLDER_"

// DefaultLanguage is recorded when neither markup nor content name a language.
const DefaultLanguage = "text"

// CodeBlock is one extracted code region.
type CodeBlock struct {
	Content        string            `yaml:"content" json:"content"`
	Language       string            `yaml:"language" json:"language"`
	IsTerminal     bool              `yaml:"is_terminal,omitempty" json:"is_terminal,omitempty"`
	HasLineNumbers bool              `yaml:"has_line_numbers,omitempty" json:"has_line_numbers,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Placeholder    string            `yaml:"placeholder" json:"placeholder"`
}

// Placeholder renders the token for the block at index i.
func Placeholder(i int) string {
	return PlaceholderPrefix + strconv.Itoa(i)
}

var lineNumber = regexp.MustCompile(`^\d+`)

// StripLineNumbers removes the leading digit run from every line.
func StripLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = lineNumber.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}

// hasLineNumbers reports whether at least 70% of the non-blank lines start
// with a digit run.
func hasLineNumbers(content string) bool {
	var total, numbered int
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if lineNumber.MatchString(line) {
			numbered++
		}
	}
	if total == 0 {
		return false
	}
	return float64(numbered) >= float64(total)*0.7
}

// body returns the content with line numbers stripped when the block has them.
func (b CodeBlock) body() string {
	if b.HasLineNumbers {
		return StripLineNumbers(b.Content)
	}
	return b.Content
}

// fenceLanguage is the tag written after the opening fence.
func (b CodeBlock) fenceLanguage() string {
	if b.Language == DefaultLanguage {
		return ""
	}
	return b.Language
}

// rendered returns the fence language and the text that goes inside the
// fence. Terminal blocks become bash with one "$ " prompt per non-blank line.
func (b CodeBlock) rendered() (lang, content string) {
	content = b.body()
	if !b.IsTerminal {
		return b.fenceLanguage(), trimBlankLines(content)
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd := strings.TrimSpace(strings.TrimLeft(line, "$"))
		lines = append(lines, "$ "+cmd)
	}
	return "bash", strings.Join(lines, "\n")
}

// trimBlankLines drops blank lines around content and trailing whitespace.
// The first line keeps its indentation.
func trimBlankLines(content string) string {
	content = strings.TrimRightFunc(content, unicode.IsSpace)
	for {
		line, rest, ok := strings.Cut(content, "\n")
		if !ok || strings.TrimSpace(line) != "" {
			return content
		}
		content = rest
	}
}

// Markdown renders the block as a fenced Markdown code block.
func (b CodeBlock) Markdown() string {
	lang, content := b.rendered()
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	return fence + lang + "\n" + content + "\n" + fence
}

// HTML renders the block as a <pre><code> element with a language-* class.
func (b CodeBlock) HTML() string {
	lang, content := b.rendered()
	class := ""
	if lang != "" {
		class = ` class="language-` + html.EscapeString(lang) + `"`
	}
	return "<pre><code" + class + ">" + html.EscapeString(content) + "</code></pre>"
}
