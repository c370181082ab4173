package logutil

import (
	"net/http"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestFormatHeadersForLog_RedactsCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Basic YWRtaW46YWRtaW4=")
	h.Set("Content-Type", "application/json")
	h.Add("Cookie", "session_id=abc")

	got := FormatHeadersForLog(h)
	if strings.Contains(got, "YWRtaW46") || strings.Contains(got, "abc") {
		t.Fatalf("credentials leaked into log line: %s", got)
	}
	if !strings.Contains(got, `content-type="application/json"`) {
		t.Fatalf("expected content-type in log line: %s", got)
	}
	if FormatHeadersForLog(nil) != "{}" {
		t.Fatal("empty headers should format as {}")
	}
}

func TestRedactBodyForLog_NestedJSON(t *testing.T) {
	body := []byte(`{"id":"user-1","password":"user-1","nested":[{"ticket":"TICKET_x"}]}`)
	got := RedactBodyForLog("application/json; charset=utf-8", body)
	if strings.Contains(got, `"user-1","password":"user-1"`) || strings.Contains(got, "TICKET_x") {
		t.Fatalf("sensitive value not redacted: %s", got)
	}
	if !strings.Contains(got, `"id":"user-1"`) {
		t.Fatalf("non-sensitive field dropped: %s", got)
	}
}

func TestRedactBodyForLog_NonJSONPassthrough(t *testing.T) {
	if got := RedactBodyForLog("text/html", []byte("password=x")); got != "password=x" {
		t.Fatalf("non-JSON body changed: %q", got)
	}
}

func TestFormatBodyForLog_NeverLeaksPassword(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secret := rapid.StringMatching(`[A-Za-z0-9]{12,40}`).Draw(t, "secret")
		max := rapid.IntRange(0, 64).Draw(t, "max")
		body := []byte(`{"id":"someone","password":"` + secret + `"}`)

		got := FormatBodyForLog("application/json", body, max)
		if strings.Contains(got, secret) {
			t.Fatalf("password leaked: %q", got)
		}
	})
}
