package urlutil

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildAbsolute_GeneratesExpectedURLs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		host := fmt.Sprintf(
			"http://%s:%d",
			rapid.StringMatching(`[a-z]{3,12}`).Draw(rt, "host"),
			rapid.IntRange(1024, 9999).Draw(rt, "port"),
		)
		base := host
		if rapid.Bool().Draw(rt, "baseHasSlash") {
			base += "/"
		}

		segment := rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "segment")
		var path, want string
		switch rapid.IntRange(0, 3).Draw(rt, "pathKind") {
		case 0:
			path, want = "", host
		case 1:
			path, want = "/"+segment, host+"/"+segment
		case 2:
			path, want = "personal-files/"+segment, host+"/personal-files/"+segment
		default:
			path = "https://elsewhere.test/" + segment
			want = path
		}

		if got := BuildAbsolute(base, path); got != want {
			rt.Fatalf("BuildAbsolute(%q, %q) = %q, want %q", base, path, got, want)
		}
	})
}

func TestWithQuery(t *testing.T) {
	got := WithQuery("http://h/api", url.Values{"relativePath": {"parent/child"}, "skip": {""}})
	if got != "http://h/api?relativePath=parent%2Fchild" {
		t.Fatalf("unexpected URL: %s", got)
	}
	if got := WithQuery("http://h/api?a=1", url.Values{"b": {"2"}}); got != "http://h/api?a=1&b=2" {
		t.Fatalf("unexpected URL: %s", got)
	}
	if got := WithQuery("http://h/api", nil); got != "http://h/api" {
		t.Fatalf("unexpected URL: %s", got)
	}
}

func TestEscapeSegment_RoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.StringMatching(`[A-Za-z0-9 .\-_?#%]{1,20}`).Draw(rt, "segment")
		escaped := EscapeSegment(s)
		if strings.ContainsAny(escaped, "/?# ") {
			rt.Fatalf("segment not escaped: %q", escaped)
		}
		back, err := url.PathUnescape(escaped)
		if err != nil || back != s {
			rt.Fatalf("round trip failed: %q -> %q -> %q (%v)", s, escaped, back, err)
		}
	})
}
