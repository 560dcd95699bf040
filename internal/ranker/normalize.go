package ranker

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lowerCaser  = cases.Lower(language.Und)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// Normalize lower-cases text and strips every non-word, non-whitespace rune
// so that "Стул, деревянный!" and "стул деревянный" score identically.
// Normalize is idempotent.
func Normalize(text string) string {
	text = lowerCaser.String(text)
	text = punctuation.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
