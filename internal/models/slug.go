package models

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeps     = regexp.MustCompile(`[-\s]+`)
)

// Slugify folds s to ASCII, drops anything that is not a word character,
// whitespace or hyphen, and joins the remaining words with single hyphens.
func Slugify(s string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(fold, s)
	if err != nil {
		ascii = s
	}

	ascii = nonSlugChars.ReplaceAllString(strings.ToLower(ascii), "")
	ascii = slugSeps.ReplaceAllString(ascii, "-")
	return strings.Trim(ascii, "-_")
}
