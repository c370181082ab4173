// Package testutil provides shared rapid generators for property-based tests.
// All e2e tests should use these generators instead of defining their own.
package testutil

import (
	"strings"

	"pgregory.net/rapid"

	"github.com/kuitang/content-e2e/internal/repo"
)

// =============================================================================
// Folder name generators
// =============================================================================

// ValidFolderNameGenerator generates names the server accepts as typed.
func ValidFolderNameGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 _.-]{0,30}[A-Za-z0-9_-]`)
}

// PaddedFolderNameGenerator generates valid names with leading and trailing spaces.
func PaddedFolderNameGenerator() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		left := rapid.IntRange(0, 3).Draw(t, "left")
		right := rapid.IntRange(0, 3).Draw(t, "right")
		name := ValidFolderNameGenerator().Draw(t, "name")
		return strings.Repeat(" ", left) + name + strings.Repeat(" ", right)
	})
}

// ForbiddenFolderNameGenerator generates names containing at least one
// forbidden character.
func ForbiddenFolderNameGenerator() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		prefix := rapid.StringMatching(`[a-z]{0,5}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-z]{1,5}`).Draw(t, "suffix")
		c := rapid.SampledFrom(strings.Split(repo.ForbiddenNameChars, "")).Draw(t, "char")
		return prefix + c + suffix
	})
}

// AnyFolderNameGenerator mixes valid, padded, forbidden and degenerate names.
func AnyFolderNameGenerator() *rapid.Generator[string] {
	return rapid.OneOf(
		ValidFolderNameGenerator(),
		PaddedFolderNameGenerator(),
		ForbiddenFolderNameGenerator(),
		rapid.StringMatching(` {1,4}`),
		rapid.StringMatching(`[a-z]{1,8}\.`),
	)
}
