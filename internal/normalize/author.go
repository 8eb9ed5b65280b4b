package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Honorifics and credential suffixes that sources attach inconsistently.
var honorificRe = regexp.MustCompile(`\b(?:dr|prof|mr|ms|mrs|jr|sr|phd|md|cfa|cpa)\.?\b`)

// Author canonicalizes an author name for order-insensitive comparison:
// width/NFKC folding, lowercasing, honorific stripping, and removal of
// everything but letters and digits. "山田 太郎" and "山田太郎" normalize
// identically, as do "Dr. John Smith" and "john smith".
func Author(name string) string {
	if name == "" {
		return ""
	}

	t := width.Fold.String(name)
	t = norm.NFKC.String(t)
	t = strings.ToLower(t)
	t = honorificRe.ReplaceAllString(t, "")

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Authors canonicalizes a full author list, dropping entries that
// normalize to nothing.
func Authors(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if a := Author(name); a != "" {
			out = append(out, a)
		}
	}
	return out
}
