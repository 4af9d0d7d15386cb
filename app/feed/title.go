package feed

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase upper-cases the first letter of every whitespace-delimited word
// and leaves everything else, including the whitespace, untouched.
func TitleCase(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	b.Grow(len(s))

	wordStart := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			wordStart = true
			b.WriteRune(r)
		case wordStart:
			wordStart = false
			b.WriteString(caser.String(string(r)))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func seriesTitle(displayName, id string) string {
	if strings.TrimSpace(displayName) == "" {
		return TitleCase(id)
	}
	return TitleCase(displayName)
}
