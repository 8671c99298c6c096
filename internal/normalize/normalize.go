// Package normalize canonicalizes user-supplied identity and entity text before it is stored.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Email trims the address and lowercases its domain part.
// The local part is kept as typed; some mail servers treat it case-sensitively.
func Email(raw string) string {
	email := strings.TrimSpace(sanitizeString(raw))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + cases.Lower(language.Und).String(email[at+1:])
}

// EmailKey returns the case-folded form of an address used for uniqueness
// checks and lookups, so "A@X.com" and "a@x.com" collide.
func EmailKey(raw string) string {
	return cases.Fold().String(Email(raw))
}

// Username applies NFKC compatibility normalization and trims whitespace,
// so visually identical usernames map to the same stored value.
func Username(raw string) string {
	return strings.TrimSpace(norm.NFKC.String(sanitizeString(raw)))
}

// Text trims whitespace and strips null bytes from free-form names and titles.
func Text(raw string) string {
	return strings.TrimSpace(sanitizeString(raw))
}

// sanitizeString removes null bytes, which SQLite and JSON consumers reject
// or silently truncate at.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
