package genai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

var (
	quoteLine = regexp.MustCompile(`(?i)^\s*quote\s*:\s*(.*)$`)
	tagsLine  = regexp.MustCompile(`(?i)^\s*tags\s*:\s*(.*)$`)
)

// ParseGenerated extracts the quote text and tag list from a model response
// in the QUOTE:/TAGS: format. Models sometimes wrap the answer in prose or
// drop the labels, so the parser is tolerant: without a QUOTE label the
// first non-empty, non-TAGS line is taken as the quote, and a missing TAGS
// line yields no tags.
func ParseGenerated(raw string) (string, []string, error) {
	var labeled, fallback string
	var tags []string

	for _, line := range strings.Split(raw, "\n") {
		if m := quoteLine.FindStringSubmatch(line); m != nil && labeled == "" {
			labeled = m[1]
			continue
		}
		if m := tagsLine.FindStringSubmatch(line); m != nil && tags == nil {
			tags = splitTags(m[1])
			continue
		}
		if fallback == "" && strings.TrimSpace(line) != "" {
			fallback = line
		}
	}

	text := labeled
	if text == "" {
		text = fallback
	}
	text = quote.SanitizeText(text)
	if text == "" {
		return "", nil, fmt.Errorf("response contains no quote text")
	}
	return text, tags, nil
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
