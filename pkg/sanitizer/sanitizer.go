// Package sanitizer canonicalises identifiers before they are validated,
// compared or stored.
package sanitizer

import (
	"strings"

	"golang.org/x/text/secure/precis"
)

// NormalizeEmail trims surrounding space and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims space and applies the PRECIS UsernameCasePreserved
// profile (width mapping, NFC). Input the profile rejects is returned trimmed
// but otherwise unchanged so that validation reports it.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	out, err := precis.UsernameCasePreserved.String(username)
	if err != nil {
		return username
	}
	return out
}

// UsernameKey is the case-folded form used for uniqueness comparisons.
func UsernameKey(username string) string {
	return strings.ToLower(NormalizeUsername(username))
}
