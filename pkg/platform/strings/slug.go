package strings

import (
	"strings"
)

// Slugify lowercases the input and collapses every run of characters outside
// [a-z0-9] into a single hyphen. Leading and trailing hyphens are dropped.
// Returns "" when nothing survives, so callers can fall back to a generated id.
//
// Example:
//
//	Slugify("Employee of the Month!")
//	// Returns: "employee-of-the-month"
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := true // suppresses a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
