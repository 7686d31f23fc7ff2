package quote

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	leadingQuotes  = regexp.MustCompile("^[\"'`“”‘’]+")
	trailingQuotes = regexp.MustCompile("[\"'`“”‘’]+$")
	quoteLabel     = regexp.MustCompile(`(?i)^quote\s*:\s*`)
)

// SanitizeText normalizes raw quote text: collapses whitespace runs to a
// single space, strips wrapping straight and smart quotes and backticks at
// both ends (two passes, to handle doubled characters), and removes a
// leading "quote:" label. Both user submissions and generated output pass
// through here before insertion.
func SanitizeText(raw string) string {
	t := whitespaceRun.ReplaceAllString(raw, " ")
	t = strings.TrimSpace(t)
	for i := 0; i < 2; i++ {
		t = leadingQuotes.ReplaceAllString(t, "")
		t = trailingQuotes.ReplaceAllString(t, "")
		t = strings.TrimSpace(t)
	}
	return quoteLabel.ReplaceAllString(t, "")
}

// NormalizeForDedupe maps quote text to the key used for duplicate
// detection in similarity results: trimmed and case-folded.
func NormalizeForDedupe(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
