package plagiarism

import (
	"regexp"
	"strings"
)

// punctuation is the ASCII punctuation set stripped from every document
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// CommentFilter removes comment regions from raw text. Implementations must
// keep newline characters so line numbers stay aligned.
type CommentFilter func(text string) string

// NoComments leaves the text untouched
func NoComments(text string) string {
	return text
}

// LineComments blanks everything from marker to the end of each line
func LineComments(marker string) CommentFilter {
	return func(text string) string {
		if marker == "" {
			return text
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if idx := strings.Index(line, marker); idx >= 0 {
				lines[i] = line[:idx]
			}
		}
		return strings.Join(lines, "\n")
	}
}

// LineTable maps offsets in the normalized stream back to original lines.
// Entry i is the offset of the last normalized character of line i+1.
type LineTable []int

// Normalizer strips formatting noise from raw text. It is safe for
// concurrent use once built.
type Normalizer struct {
	comments  CommentFilter
	stopWords *regexp.Regexp
}

// NewNormalizer compiles the stop-word list into a single matcher
func NewNormalizer(stopWords []string, comments CommentFilter) *Normalizer {
	if comments == nil {
		comments = NoComments
	}

	n := &Normalizer{comments: comments}

	patterns := make([]string, 0, len(stopWords))
	for _, word := range stopWords {
		// line breaks are never erased, or the line table would drift
		if word == "" || strings.Contains(word, "\n") {
			continue
		}
		patterns = append(patterns, regexp.QuoteMeta(word))
	}
	if len(patterns) > 0 {
		n.stopWords = regexp.MustCompile(strings.Join(patterns, "|"))
	}

	return n
}

// Normalize returns the flat normalized stream and its line table
func (n *Normalizer) Normalize(raw string) ([]rune, LineTable) {
	text := n.comments(raw)
	text = stripRunes(text, punctuation)
	if n.stopWords != nil {
		text = n.stopWords.ReplaceAllLiteralString(text, "")
	}
	text = stripRunes(text, " \t\r")

	// the last line counts even when normalization emptied it
	closeLast := raw != "" && !strings.HasSuffix(raw, "\n")
	table := buildLineTable(text, closeLast)
	return []rune(strings.ReplaceAll(text, "\n", "")), table
}

func stripRunes(text, set string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(set, r) {
			return -1
		}
		return r
	}, text)
}

// buildLineTable scans newline-delimited text, tracking the offset each
// character will have once newlines are removed
func buildLineTable(text string, closeLast bool) LineTable {
	table := make(LineTable, 0, strings.Count(text, "\n")+1)
	idx := -1
	for _, r := range text {
		if r == '\n' {
			table = append(table, idx)
			continue
		}
		idx++
	}

	if closeLast {
		table = append(table, idx)
	}

	return table
}

// Line returns the 1-based line holding the given offset: the number of
// entries strictly below offset, plus one
func (t LineTable) Line(offset int) int {
	lo, hi := 0, len(t)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if offset <= t[mid] {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return lo + 1
}

// HasContent reports whether the 1-based line kept any normalized characters
func (t LineTable) HasContent(line int) bool {
	if line < 1 || line > len(t) {
		return false
	}
	if line == 1 {
		return t[0] >= 0
	}
	return t[line-1] > t[line-2]
}
