package codeblock

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/markdownizer/pkg/language"
	"golang.org/x/net/html"
)

// frameworkSignature lists the selectors that mark code regions for one
// documentation framework or highlighter. The table is checked in order.
type frameworkSignature struct {
	framework string
	selectors []string
}

var frameworkSignatures = []frameworkSignature{
	{"docusaurus", []string{".theme-code-block", `[class*="codeBlock"]`, ".prism-code"}},
	{"mintlify", []string{`[class*="CodeBlock"]`, `[class*="CodeGroup"]`}},
	{"gitbook", []string{".code-block", "[data-gb-custom-block]"}},
	{"nextra", []string{`[class*="nextra-code"]`, ".nx-code-block"}},
	{"vuepress", []string{".vuepress-code-block", `div[class*="language-"]`}},
	{"highlightjs", []string{".hljs", `[class*="hljs-"]`}},
	{"prism", []string{`[class*="prism"]`, `[class*="language-"]`}},
}

var terminalClassHints = []string{"terminal", "command", "console", "shell"}

// rootPrompt matches "# cmd ..." where cmd is a command typically run as
// root. A bare "#" line is a comment in too many languages to count.
var rootPrompt = regexp.MustCompile(`^#\s+(?:sudo|apt|apt-get|yum|dnf|apk|pacman|systemctl|service|cd|ls|cat|echo|mkdir|rm|cp|mv|chmod|chown|docker|kubectl|git|npm|pip|pip3|make|curl|wget|export|mount|useradd|passwd|\./\S+)(?:\s|$)`)

// inlineCodeMax is the longest single-line <code> that is still treated as
// inline code.
const inlineCodeMax = 60

// frameworkMinLength is the shortest text a framework match must carry.
const frameworkMinLength = 10

var documentMarkup = regexp.MustCompile(`(?i)<(html|head|body)[\s>]`)

var literalPlaceholder = regexp.MustCompile(PlaceholderPrefix + `(\d+)`)

type extraction struct {
	blocks []CodeBlock
	// base is the first placeholder number issued.
	base int
}

// firstFreeIndex returns one past the highest PLACEHOLDER_<n> already present
// in rawHTML, or 0. Numbering from there keeps page text from being mistaken
// for a block, and no issued token is a prefix of one already on the page.
func firstFreeIndex(rawHTML string) int {
	base := 0
	for _, m := range literalPlaceholder.FindAllStringSubmatch(rawHTML, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		base = max(base, n+1)
	}
	return base
}

// Extract finds every code region in rawHTML, replaces each with its
// placeholder and returns the rewritten HTML with the blocks in placeholder
// order. Input without code, or input that cannot be parsed, is returned
// unchanged with no blocks.
func Extract(rawHTML string) (string, []CodeBlock) {
	if strings.TrimSpace(rawHTML) == "" {
		return rawHTML, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML, nil
	}

	e := &extraction{base: firstFreeIndex(rawHTML)}
	e.semantic(doc)
	e.frameworks(doc)

	if len(e.blocks) == 0 {
		return rawHTML, nil
	}

	out, err := render(doc, rawHTML)
	if err != nil {
		return rawHTML, nil
	}
	return out, e.blocks
}

// semantic handles <pre> regions, then multi-line <code> outside any <pre>.
func (e *extraction) semantic(doc *goquery.Document) {
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		if !attached(pre.Get(0)) {
			return
		}

		code := pre.Find("code").First()
		if code.Length() == 0 {
			content := flattenText(pre)
			if strings.TrimSpace(content) == "" {
				return
			}
			e.replace(pre, CodeBlock{
				Content:  content,
				Language: DefaultLanguage,
				Metadata: map[string]string{"source": "semantic_html", "tag": "pre"},
			})
			return
		}

		content := flattenText(code)
		if strings.TrimSpace(content) == "" {
			return
		}
		lang := language.FromMarkup(code)
		if lang == "" {
			lang = language.FromMarkup(pre)
		}
		e.replace(pre, CodeBlock{
			Content:        content,
			Language:       orDefault(lang, content),
			IsTerminal:     isTerminal(pre, code),
			HasLineNumbers: hasLineNumbers(content),
			Metadata:       map[string]string{"source": "semantic_html", "tag": "pre>code"},
		})
	})

	doc.Find("code").Each(func(_ int, code *goquery.Selection) {
		if !attached(code.Get(0)) || code.ParentsFiltered("pre").Length() > 0 {
			return
		}
		content := flattenText(code)
		if strings.TrimSpace(content) == "" {
			return
		}
		if !strings.Contains(content, "\n") && utf8.RuneCountInString(content) <= inlineCodeMax {
			return
		}
		e.replace(code, CodeBlock{
			Content:        content,
			Language:       orDefault(language.FromMarkup(code), content),
			HasLineNumbers: hasLineNumbers(content),
			Metadata:       map[string]string{"source": "semantic_html", "tag": "code"},
		})
	})
}

// frameworks walks the signature table for regions the semantic pass missed.
func (e *extraction) frameworks(doc *goquery.Document) {
	for _, sig := range frameworkSignatures {
		for _, selector := range sig.selectors {
			doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
				n := el.Get(0)
				if !attached(n) || isDocumentElement(n) {
					return
				}
				if el.Find("pre").Length() > 0 || strings.Contains(el.Text(), PlaceholderPrefix) {
					return
				}
				content := flattenText(el)
				if strings.TrimSpace(content) == "" || utf8.RuneCountInString(content) <= frameworkMinLength {
					return
				}
				e.replace(el, CodeBlock{
					Content:        content,
					Language:       orDefault(language.FromMarkup(el), content),
					IsTerminal:     isTerminal(el),
					HasLineNumbers: hasLineNumbers(content),
					Metadata: map[string]string{
						"source":    "framework",
						"framework": sig.framework,
						"selector":  selector,
					},
				})
			})
		}
	}
}

// replace records b and swaps the element for a text node holding the next
// placeholder.
func (e *extraction) replace(sel *goquery.Selection, b CodeBlock) {
	n := sel.Get(0)
	b.Placeholder = Placeholder(e.base + len(e.blocks))
	e.blocks = append(e.blocks, b)

	n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: b.Placeholder}, n)
	n.Parent.RemoveChild(n)
}

// orDefault falls back to content detection and then to DefaultLanguage.
func orDefault(lang, content string) string {
	if lang != "" {
		return lang
	}
	if lang = language.FromContent(content); lang != "" {
		return lang
	}
	return DefaultLanguage
}

// isTerminal reports whether any of the elements carries a terminal-ish class
// or holds mostly prompt lines.
func isTerminal(sels ...*goquery.Selection) bool {
	for _, sel := range sels {
		class := strings.ToLower(sel.AttrOr("class", ""))
		for _, hint := range terminalClassHints {
			if strings.Contains(class, hint) {
				return true
			}
		}

		lines := strings.Split(strings.TrimSpace(flattenText(sel)), "\n")
		prompts := 0
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "$") || rootPrompt.MatchString(line) {
				prompts++
			}
		}
		if float64(prompts) > float64(len(lines))*0.5 {
			return true
		}
	}
	return false
}

func isDocumentElement(n *html.Node) bool {
	switch n.Data {
	case "html", "head", "body":
		return true
	}
	return false
}

// render serializes the document, keeping fragments as fragments. The parser
// moves a fragment's leading <style>, <title>, <meta> or <link> into an
// implied head; those come back ahead of the body content.
func render(doc *goquery.Document, original string) (string, error) {
	if documentMarkup.MatchString(original) {
		return doc.Html()
	}
	head, err := doc.Find("head").Html()
	if err != nil {
		return "", err
	}
	body, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return head + body, nil
}
