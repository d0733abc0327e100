package codeblock

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// flattenText joins the text of every descendant of sel. Highlighter spans are
// flattened, whitespace-only nodes that span lines collapse to one line break,
// and <br> becomes a newline.
func flattenText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	text := strings.ReplaceAll(b.String(), "\u200b", "")
	return excessNewlines.ReplaceAllString(text, "\n\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) != "" || !strings.Contains(n.Data, "\n") {
			b.WriteString(n.Data)
		} else {
			b.WriteByte('\n')
		}
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// attached reports whether n still hangs off the document root. Elements
// inside a region that has already been replaced are detached.
func attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return true
		}
	}
	return false
}
