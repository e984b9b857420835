package davclient

import (
	"net/url"
	"strings"
)

func cleanURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}

// URLContains is the sync engine's only notion of URL identity: both
// sides trimmed and stripped of a trailing slash, true iff either
// contains the other. This lets absolute URLs and server-relative hrefs
// of the same resource match. Two resources where one URL is a prefix of
// the other will also match; name collections accordingly.
func URLContains(a, b string) bool {
	if a == "" && b == "" {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	ca, cb := cleanURL(a), cleanURL(b)
	return strings.Contains(ca, cb) || strings.Contains(cb, ca)
}

// URLEquals is the strict variant: equality up to surrounding whitespace
// and a trailing slash.
func URLEquals(a, b string) bool {
	if a == "" && b == "" {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return cleanURL(a) == cleanURL(b)
}

// resolveHref resolves href against base. Absolute hrefs are preserved.
func resolveHref(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	refURL, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(refURL).String()
}

// pathname reduces a URL to its path component. Relative inputs come back
// unchanged.
func pathname(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return u
	}
	if parsed.Path == "" {
		return "/"
	}
	return parsed.Path
}
