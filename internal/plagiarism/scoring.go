package plagiarism

import (
	"sort"
)

// Match is the directional comparison of two documents. Score is the share
// of the suspect's fingerprints whose hash also occurs among the source's
// selected fingerprints; Lines are suspect lines covered by those matches.
type Match struct {
	Suspect string  `json:"suspect"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Risk    string  `json:"risk"`
	Lines   []int   `json:"lines"`
}

// Score compares every ordered pair of distinct documents and returns the
// matches ranked by score, highest first. Ties keep handle order.
func Score(docs []*Document, gii GII, k int) []Match {
	n := len(docs)
	counts := make([]int, n*n)
	positions := make([]map[int]struct{}, n*n)

	// Iterating source a, every occurrence of a's hashes in another document b
	// is charged to cell (b, a) and localized in b's own line numbers. The
	// lines therefore always belong to the document holding the occurrence.
	for _, source := range docs {
		a := source.Handle
		for _, fp := range source.Fingerprints {
			for _, occ := range gii.Lookup(fp.Hash) {
				b := occ.Doc
				if b == a {
					continue
				}
				cell := b*n + a
				counts[cell]++

				if positions[cell] == nil {
					positions[cell] = make(map[int]struct{})
				}
				markLines(positions[cell], docs[b].Lines, occ.Position, k)
			}
		}
	}

	matches := make([]Match, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			cell := i*n + j
			score := ratio(counts[cell], len(docs[i].Fingerprints))
			matches = append(matches, Match{
				Suspect: docs[i].ID,
				Source:  docs[j].ID,
				Score:   score,
				Risk:    GetRiskLevel(score),
				Lines:   sortedLines(positions[cell]),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// markLines adds every line touched by the k-gram at offset that kept at
// least one normalized character
func markLines(set map[int]struct{}, lines LineTable, offset, k int) {
	start := lines.Line(offset)
	end := lines.Line(offset + k - 1)
	for line := start; line <= end; line++ {
		if lines.HasContent(line) {
			set[line] = struct{}{}
		}
	}
}

// ratio divides matched by total, clamped to [0, 1]. A hash repeated in both
// documents is counted once per pairing and can overshoot the denominator.
func ratio(matched, total int) float64 {
	if total == 0 {
		return 0.0
	}
	score := float64(matched) / float64(total)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func sortedLines(set map[int]struct{}) []int {
	lines := make([]int, 0, len(set))
	for line := range set {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// GetRiskLevel returns risk level based on a match score
func GetRiskLevel(score float64) string {
	if score < 0.3 {
		return "clean"
	} else if score < 0.6 {
		return "suspicious"
	} else if score < 0.85 {
		return "highly suspicious"
	}
	return "near copy"
}
