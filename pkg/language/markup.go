package language

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// classPrefix is a class-name prefix that carries a language hint. Strict
// prefixes only accept suffixes that resolve to a known language, so that
// token classes such as "hljs-keyword" or "code-block" are not mistaken for
// language names.
type classPrefix struct {
	prefix string
	strict bool
}

var classPrefixes = []classPrefix{
	{prefix: "language-"},
	{prefix: "lang-"},
	{prefix: "hljs-", strict: true},
	{prefix: "prism-", strict: true},
	{prefix: "s-lang-"}, // Stack Exchange
	{prefix: "code-", strict: true},
	{prefix: "syntax-", strict: true},
}

// genericClasses never name a language on their own.
var genericClasses = map[string]struct{}{
	"hljs": {}, "prism": {}, "code": {}, "block": {}, "highlight": {},
	"codeblock": {}, "source": {}, "sourcecode": {}, "none": {}, "default": {},
}

// FromClass returns the canonical language named by a class attribute value,
// or "" when the classes carry no hint.
func FromClass(class string) string {
	fields := strings.Fields(class)

	for _, cp := range classPrefixes {
		for _, cls := range fields {
			lower := strings.ToLower(cls)
			// s-lang-* would otherwise be claimed by lang-* on a later pass.
			if cp.prefix == "lang-" && strings.HasPrefix(lower, "s-lang-") {
				continue
			}
			if !strings.HasPrefix(lower, cp.prefix) {
				continue
			}
			suffix := strings.TrimPrefix(lower, cp.prefix)
			if suffix == "" {
				continue
			}
			if _, generic := genericClasses[suffix]; generic {
				continue
			}
			if cp.strict && !Known(suffix) {
				continue
			}
			return Normalize(suffix)
		}
	}

	// Bare canonical names, e.g. class="hljs javascript".
	for _, cls := range fields {
		lower := strings.ToLower(cls)
		if len(lower) < 2 {
			continue
		}
		if _, generic := genericClasses[lower]; generic {
			continue
		}
		if canonical, ok := aliases[lower]; ok && canonical == lower && canonical != "text" {
			return canonical
		}
	}
	return ""
}

// FromMarkup inspects only the element's attributes: class first, then
// data-language / data-lang.
func FromMarkup(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	if lang := FromClass(sel.AttrOr("class", "")); lang != "" {
		return lang
	}
	for _, attr := range []string{"data-language", "data-lang"} {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return Normalize(v)
		}
	}
	return ""
}

// FromSelection classifies an element: markup hints first, then the
// element's text content.
func FromSelection(sel *goquery.Selection) string {
	if lang := FromMarkup(sel); lang != "" {
		return lang
	}
	if sel == nil {
		return ""
	}
	return FromContent(sel.Text())
}
