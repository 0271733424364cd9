package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/RishiKendai/winnow/internal/plagiarism"
)

// LinesColumnWidth wraps the line list column of the table
const LinesColumnWidth = 50

type jsonReport struct {
	KGrams    int                        `json:"kGrams"`
	Window    int                        `json:"window"`
	Documents []plagiarism.DocumentStats `json:"documents"`
	Results   []plagiarism.Match         `json:"results"`
}

// outputJSON writes a value as formatted JSON
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputTable writes one row per match; long line lists continue on
// following rows with the other columns left blank
func outputTable(w io.Writer, matches []plagiarism.Match) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUSPECT\tSOURCE\tSIMILARITY\tRISK\tLINES (SUSPECT)")

	for _, m := range matches {
		chunks := wrapText(formatLines(m.Lines), LinesColumnWidth)
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%s\n", m.Suspect, m.Source, m.Score, m.Risk, chunks[0])
		for _, chunk := range chunks[1:] {
			fmt.Fprintf(tw, "\t\t\t\t%s\n", chunk)
		}
	}

	return tw.Flush()
}

// formatLines collapses consecutive line numbers into ranges: 1-4, 7, 9-10
func formatLines(lines []int) string {
	if len(lines) == 0 {
		return "-"
	}

	parts := make([]string, 0)
	start, prev := lines[0], lines[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(prev))
		}
	}
	for _, line := range lines[1:] {
		if line == prev+1 {
			prev = line
			continue
		}
		flush()
		start, prev = line, line
	}
	flush()

	return strings.Join(parts, ", ")
}

// wrapText splits s at ", " boundaries into chunks of at most width bytes
func wrapText(s string, width int) []string {
	if len(s) <= width {
		return []string{s}
	}

	var chunks []string
	var current strings.Builder
	for i, part := range strings.Split(s, ", ") {
		piece := part
		if i > 0 {
			piece = ", " + part
		}
		if current.Len() > 0 && current.Len()+len(piece) > width {
			chunks = append(chunks, current.String()+",")
			current.Reset()
			piece = part
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
