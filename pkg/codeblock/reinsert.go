package codeblock

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// token is the placeholder the block was issued at index i.
func (b CodeBlock) token(i int) string {
	if b.Placeholder != "" {
		return b.Placeholder
	}
	return Placeholder(i)
}

// Reinsert swaps every placeholder in target for its block's fenced Markdown.
// Blocks whose placeholder does not appear are dropped. Tokens are replaced
// from the highest index down so PLACEHOLDER_1 never eats into PLACEHOLDER_10.
func Reinsert(target string, blocks []CodeBlock) string {
	for i := len(blocks) - 1; i >= 0; i-- {
		tok := blocks[i].token(i)
		if !strings.Contains(target, tok) {
			continue
		}
		target = strings.ReplaceAll(target, tok, blocks[i].Markdown())
	}
	return target
}

// ReinsertHTML swaps placeholders in an HTML string for <pre><code> elements.
// A paragraph holding nothing but the placeholder is replaced as a whole.
func ReinsertHTML(target string, blocks []CodeBlock) string {
	for i := len(blocks) - 1; i >= 0; i-- {
		tok := blocks[i].token(i)
		if !strings.Contains(target, tok) {
			continue
		}
		rendered := blocks[i].HTML()
		wrapped := regexp.MustCompile(`<p>\s*` + regexp.QuoteMeta(tok) + `\s*</p>`)
		target = wrapped.ReplaceAllLiteralString(target, rendered)
		target = strings.ReplaceAll(target, tok, rendered)
	}
	return target
}

// HasPlaceholders reports whether any block's placeholder is present in s.
func HasPlaceholders(s string, blocks []CodeBlock) bool {
	for i, b := range blocks {
		if strings.Contains(s, b.token(i)) {
			return true
		}
	}
	return false
}

// InjectHTML appends every block as a <pre><code> element at the end of the
// document body. Position is lost; this is the path for HTML that no longer
// carries placeholders.
func InjectHTML(target string, blocks []CodeBlock) string {
	if strings.TrimSpace(target) == "" || len(blocks) == 0 {
		return target
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(target))
	if err != nil {
		return target
	}

	body := doc.Find("body")
	for _, b := range blocks {
		body.AppendHtml(b.HTML())
	}

	out, err := render(doc, target)
	if err != nil {
		return target
	}
	return out
}
