package fetcher

import (
	"net/url"
	"strings"
)

// NormalizeURL reduces rawURL to the (host, path) pair used for redirect
// comparison: lowercase host without "www.", path without trailing slash.
// The root path stays "/". Scheme, port, query and fragment are ignored.
func NormalizeURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	path = strings.TrimRight(u.Path, "/")
	if path == "" {
		path = "/"
	}
	return host, path
}

// IsSignificantRedirect reports whether final points at a different page than
// original: another domain (subdomains included) or another path.
func IsSignificantRedirect(original, final string) bool {
	oh, op := NormalizeURL(original)
	fh, fp := NormalizeURL(final)
	return oh != fh || op != fp
}
