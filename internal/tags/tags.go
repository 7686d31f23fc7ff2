// Package tags provides the canonical tag vocabulary: externally supplied
// reference data mapping tag names to display colors. The vocabulary is
// loaded once at startup and injected read-only wherever tags are
// validated or normalized.
package tags

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/quoted/internal/quote"
)

// entryPattern matches one vocabulary line: "Name: RGB(r, g, b)".
var entryPattern = regexp.MustCompile(`^(.*?):\s*RGB\((\d+)\s*,\s*(\d+)\s*,\s*(\d+)\)\s*$`)

// Entry is one vocabulary member: the canonical name and its display color.
type Entry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Vocabulary is the canonical tag set. Matching is case-insensitive;
// canonical casing is what gets stored.
type Vocabulary struct {
	entries []Entry
	byLower map[string]string
}

// Parse reads vocabulary lines from r. Lines that do not match the
// "Name: RGB(r, g, b)" format are skipped.
func Parse(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{byLower: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, dup := v.byLower[strings.ToLower(name)]; dup {
			continue
		}
		v.entries = append(v.entries, Entry{
			Name:  name,
			Color: fmt.Sprintf("rgb(%s, %s, %s)", m[2], m[3], m[4]),
		})
		v.byLower[strings.ToLower(name)] = name
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	return v, nil
}

// LoadFile parses the vocabulary from a file on disk.
func LoadFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Names returns the canonical names in file order.
func (v *Vocabulary) Names() []string {
	names := make([]string, len(v.entries))
	for i, e := range v.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns the vocabulary entries in file order.
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Canonical resolves a tag name case-insensitively to its canonical casing.
func (v *Vocabulary) Canonical(name string) (string, bool) {
	canon, ok := v.byLower[strings.ToLower(strings.TrimSpace(name))]
	return canon, ok
}

// Normalize maps raw tag names to canonical names: unknown tags are
// dropped, casing is restored, duplicates removed, input order preserved,
// capped at quote.MaxTags. Normalization never fails; an input with no
// recognizable tags yields an empty slice.
func (v *Vocabulary) Normalize(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		canon, ok := v.Canonical(part)
		if !ok || seen[canon] {
			continue
		}
		out = append(out, canon)
		seen[canon] = true
		if len(out) == quote.MaxTags {
			break
		}
	}
	return out
}

// NormalizeJoined normalizes a comma-separated tag string into the ", "
// joined storage format on quotes. Returns "" when nothing normalizes.
func (v *Vocabulary) NormalizeJoined(raw string) string {
	return Join(v.Normalize(strings.Split(raw, ",")))
}

// Join renders a tag list in the storage format on quotes.
func Join(names []string) string {
	return strings.Join(names, ", ")
}
