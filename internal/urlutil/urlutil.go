// Package urlutil builds absolute URLs against a server base URL.
package urlutil

import (
	"net/url"
	"strings"
)

// BuildAbsolute builds an absolute URL from a base origin and a path.
func BuildAbsolute(base, path string) string {
	base = normalizeBaseURL(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// WithQuery appends encoded query parameters to rawURL. Empty values are dropped.
func WithQuery(rawURL string, query url.Values) string {
	kept := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				kept.Add(k, v)
			}
		}
	}
	if len(kept) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + kept.Encode()
}

// EscapeSegment escapes one path segment, so ids like "-my-" or names with
// spaces survive intact.
func EscapeSegment(s string) string {
	return url.PathEscape(s)
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
