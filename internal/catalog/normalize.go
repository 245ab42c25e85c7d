package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCode canonicalises a product or node code: NFKC, no control or
// space characters, upper case. Full-width "Ａ" and " a " both become "A".
func NormalizeCode(s string) string {
	t := transform.Chain(
		norm.NFKC,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.IsControl(r) || unicode.IsSpace(r)
		})),
	)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = strings.TrimSpace(s)
	}
	return strings.ToUpper(result)
}
