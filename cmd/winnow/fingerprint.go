package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/RishiKendai/winnow/internal/config"
	"github.com/RishiKendai/winnow/internal/loader"
	"github.com/RishiKendai/winnow/internal/plagiarism"
	"github.com/spf13/cobra"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>",
	Short: "Show the fingerprints selected for one file",
	Long: `Fingerprint normalizes a single file with the same settings as compare and
lists each selected fingerprint with its normalized offset and the original
lines its k-gram spans.`,
	Args: cobra.ExactArgs(1),
	RunE: runFingerprint,
}

func init() {
	flags := fingerprintCmd.Flags()
	flags.Int("k", config.DefaultKGrams, "k-gram length in normalized characters")
	flags.Int("w", config.DefaultWindow, "winnowing window size in hashes")
	flags.StringSlice("stop-word", nil, "Stop word to erase before fingerprinting (repeatable)")
	flags.String("stop-words-file", "", "YAML file with a stop_words list")
	flags.String("preset", "", "Built-in stop-word preset ("+strings.Join(config.PresetNames(), ", ")+")")
	flags.String("comment", "", "Line comment marker to strip, e.g. '#' or '//'")
	flags.Bool("strict", false, "Fail when the file is too short to produce fingerprints")
	flags.Bool("json", false, "Output JSON instead of a table")
	rootCmd.AddCommand(fingerprintCmd)
}

type fingerprintRow struct {
	Hash      plagiarism.Hash `json:"hash"`
	Position  int             `json:"position"`
	StartLine int             `json:"startLine"`
	EndLine   int             `json:"endLine"`
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	stopWords, err := cfg.ResolveStopWords()
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	opts := plagiarism.Options{
		KGrams:    cfg.KGrams,
		Window:    cfg.WindowSize,
		StopWords: stopWords,
	}
	if comment, _ := cmd.Flags().GetString("comment"); comment != "" {
		opts.Comments = plagiarism.LineComments(comment)
	}

	detector, err := plagiarism.NewDetector(opts, nil, nil)
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	src, err := loader.New(1, 0).Load(args[0])
	if err != nil {
		return withCode(ExitLoadError, err)
	}

	doc := detector.Fingerprint(0, src)
	if cfg.StrictFingerprints && len(doc.Fingerprints) == 0 {
		return withCode(ExitConfigError, fmt.Errorf("%w: %s", plagiarism.ErrNoFingerprints, doc.ID))
	}

	rows := make([]fingerprintRow, 0, len(doc.Fingerprints))
	for _, fp := range doc.Fingerprints {
		rows = append(rows, fingerprintRow{
			Hash:      fp.Hash,
			Position:  fp.Position,
			StartLine: doc.Lines.Line(fp.Position),
			EndLine:   doc.Lines.Line(fp.Position + cfg.KGrams - 1),
		})
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return outputJSON(out, struct {
			plagiarism.DocumentStats
			Selected []fingerprintRow `json:"selected"`
		}{doc.Stats(), rows})
	}

	stats := doc.Stats()
	fmt.Fprintf(out, "%s: %d normalized characters, %d lines, %d fingerprints\n",
		stats.ID, stats.NormalizedLength, stats.Lines, stats.Fingerprints)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tOFFSET\tLINES")
	for _, row := range rows {
		fmt.Fprintf(tw, "%08x\t%d\t%d-%d\n", uint32(row.Hash), row.Position, row.StartLine, row.EndLine)
	}
	return tw.Flush()
}
