package internal

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeShortcode trims and upper-cases a shortcode.
func NormalizeShortcode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName folds compatibility characters and collapses whitespace in a display name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(name)), " ")
}
