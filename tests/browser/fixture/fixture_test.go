package fixture

import (
	"regexp"
	"testing"

	"pgregory.net/rapid"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

func testRandom_UniqueAndWellFormed(t *rapid.T) {
	n := rapid.IntRange(1, 200).Draw(t, "n")
	seen := make(map[string]bool, n)
	for range n {
		tok := Random()
		if !tokenPattern.MatchString(tok) {
			t.Fatalf("malformed token %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q after %d draws", tok, len(seen))
		}
		seen[tok] = true
	}
}

func TestRandom_UniqueAndWellFormed(t *testing.T) {
	rapid.Check(t, testRandom_UniqueAndWellFormed)
}
