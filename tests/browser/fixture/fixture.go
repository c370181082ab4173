// Package fixture generates identifiers for browser-suite fixtures.
package fixture

import (
	"strings"

	"github.com/google/uuid"
)

// TokenLen is the length of tokens returned by Random.
const TokenLen = 12

// Random returns a lowercase hex token, unique per call for all practical
// purposes, for use in user, site and folder names.
func Random() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:TokenLen]
}
