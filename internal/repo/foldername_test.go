package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidateFolderName_Messages(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		want string
	}{
		{"", MsgNameRequired},
		{"    ", MsgNameOnlySpaces},
		{"folder-name.", MsgNameEndsInPeriod},
		{"folder-name. ", MsgNameEndsInPeriod},
		{"a*a", MsgNameForbidden},
		{`a"a`, MsgNameForbidden},
		{"a<a", MsgNameForbidden},
		{"a>a", MsgNameForbidden},
		{`a\a`, MsgNameForbidden},
		{"a/a", MsgNameForbidden},
		{"a?a", MsgNameForbidden},
		{"a:a", MsgNameForbidden},
		{"a|a", MsgNameForbidden},
		{"ok", ""},
		{" ok ", ""},
		{".hidden", ""},
	}
	for _, tc := range cases {
		got := ValidateFolderName(tc.name)
		if tc.want == "" {
			assert.Empty(t, got, "name %q", tc.name)
			continue
		}
		assert.True(t, strings.HasPrefix(got, tc.want), "name %q: got %q, want prefix %q", tc.name, got, tc.want)
	}
}

func TestValidateFolderName_ForbiddenCharacterRule(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[a-z0-9 -]{0,10}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-z0-9 -]{0,10}`).Draw(t, "suffix")
		c := rapid.SampledFrom([]rune(ForbiddenNameChars)).Draw(t, "char")
		name := prefix + string(c) + suffix

		got := ValidateFolderName(name)
		if !strings.Contains(got, MsgNameForbidden) {
			t.Fatalf("ValidateFolderName(%q) = %q", name, got)
		}
	})
}

func TestValidateFolderName_OnlySpaces(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		if got := ValidateFolderName(strings.Repeat(" ", n)); got != MsgNameOnlySpaces {
			t.Fatalf("got %q", got)
		}
	})
}

func TestTrimFolderName_ValidNamesSurviveTrimming(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		core := rapid.StringMatching(`[a-z0-9][a-z0-9 _-]{0,20}[a-z0-9]`).Draw(t, "core")
		left := rapid.IntRange(0, 5).Draw(t, "left")
		right := rapid.IntRange(0, 5).Draw(t, "right")
		name := strings.Repeat(" ", left) + core + strings.Repeat(" ", right)

		if msg := ValidateFolderName(name); msg != "" {
			t.Fatalf("ValidateFolderName(%q) = %q", name, msg)
		}
		if got := TrimFolderName(name); got != core {
			t.Fatalf("TrimFolderName(%q) = %q, want %q", name, got, core)
		}
	})
}
