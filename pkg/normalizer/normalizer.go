// Package normalizer cleans URLs: tracking parameters out, relative links
// resolved, credentials masked before they reach a log line.
package normalizer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/dtnitsch/markdownizer/pkg/markdown"
)

var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"msclkid":      {},
	"ref":          {},
	"source":       {},
}

// StripTracking removes known tracking parameters from rawURL. Unparsable
// input is returned as is.
func StripTracking(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}

	q := u.Query()
	changed := false
	for k := range q {
		if _, ok := trackingParams[k]; ok {
			q.Del(k)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// NormalizeLinks rewrites every [text](target) in md to an absolute URL
// resolved against base, with tracking parameters removed. Fragment-only
// targets and mailto: links are left alone, as is anything that fails to
// resolve. Fenced code is never touched.
func NormalizeLinks(md, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return md
	}
	return markdown.MapProse(md, func(prose string) string {
		return normalizeProse(prose, baseURL)
	})
}

func normalizeProse(md string, baseURL *url.URL) string {
	return markdownLink.ReplaceAllStringFunc(md, func(link string) string {
		m := markdownLink.FindStringSubmatch(link)
		text, target := m[1], strings.TrimSpace(m[2])
		if strings.HasPrefix(target, "#") || strings.HasPrefix(target, "mailto:") {
			return link
		}

		// [text](url "title")
		dest, title, _ := strings.Cut(target, " ")
		ref, err := url.Parse(dest)
		if err != nil {
			return link
		}

		out := StripTracking(baseURL.ResolveReference(ref).String())
		if title != "" {
			out += " " + title
		}
		return "[" + text + "](" + out + ")"
	})
}

var secretParam = regexp.MustCompile(`(?i)([?&;](?:token|api_key|key|secret|auth)=)[^&#]+`)

// RedactTokens masks credential-looking query values for logging.
func RedactTokens(rawURL string) string {
	return secretParam.ReplaceAllString(rawURL, "${1}[REDACTED]")
}
