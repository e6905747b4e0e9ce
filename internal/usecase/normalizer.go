package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison key of a name: lower-cased, diacritics
// stripped, with all whitespace and punctuation (hyphens included) removed.
// Two names refer to the same herb iff their keys are equal.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// NFD splits "ā" into "a" + U+0304 so the mark can be dropped below.
	decomposed := strings.ToLower(norm.NFD.String(s))

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeAll maps Normalize over values and drops empty keys.
func NormalizeAll(values []string) []string {
	keys := make([]string, 0, len(values))
	for _, v := range values {
		if k := Normalize(v); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// keySet builds a lookup set of the non-empty keys of values.
func keySet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, k := range NormalizeAll(values) {
		set[k] = struct{}{}
	}
	return set
}
