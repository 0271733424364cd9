package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/RishiKendai/winnow/internal/config"
	"github.com/RishiKendai/winnow/internal/configs/env"
	"github.com/RishiKendai/winnow/internal/loader"
	"github.com/RishiKendai/winnow/internal/logger"
	"github.com/RishiKendai/winnow/internal/plagiarism"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <path> [path...]",
	Short: "Compare files pairwise and rank them by similarity",
	Long: `Compare fingerprints every file, indexes the fingerprints of all files and
prints one row per ordered pair: the suspect file, the source file, the share
of the suspect's fingerprints found in the source, and the suspect lines
covered by the shared fingerprints. Directories are walked and filtered with
--include and --exclude globs. Any unreadable file aborts the run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	flags := compareCmd.Flags()
	flags.Int("k", config.DefaultKGrams, "k-gram length in normalized characters")
	flags.Int("w", config.DefaultWindow, "winnowing window size in hashes")
	flags.StringSlice("stop-word", nil, "Stop word to erase before fingerprinting (repeatable)")
	flags.String("stop-words-file", "", "YAML file with a stop_words list")
	flags.String("preset", "", "Built-in stop-word preset ("+strings.Join(config.PresetNames(), ", ")+")")
	flags.String("comment", "", "Line comment marker to strip, e.g. '#' or '//'")
	flags.Bool("strict", false, "Fail when a file is too short to produce fingerprints")
	flags.Bool("parallel", true, "Fingerprint files on a worker pool")
	flags.Float64("min-score", 0, "Only show pairs scoring at least this value")
	flags.Bool("json", false, "Output JSON instead of a table")
	flags.StringSlice("include", nil, "Glob of files to take from directories, e.g. '*.py' (repeatable)")
	flags.StringSlice("exclude", nil, "Glob of files to skip in directories (repeatable)")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	stopWords, err := cfg.ResolveStopWords()
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	flags := cmd.Flags()
	comment, _ := flags.GetString("comment")
	minScore, _ := flags.GetFloat64("min-score")
	asJSON, _ := flags.GetBool("json")
	include, _ := flags.GetStringSlice("include")
	exclude, _ := flags.GetStringSlice("exclude")
	if minScore < 0 || minScore > 1 {
		return withCode(ExitConfigError, fmt.Errorf("--min-score must be within [0, 1], got %g", minScore))
	}

	opts := plagiarism.Options{
		KGrams:              cfg.KGrams,
		Window:              cfg.WindowSize,
		StopWords:           stopWords,
		RequireFingerprints: cfg.StrictFingerprints,
	}
	if comment != "" {
		opts.Comments = plagiarism.LineComments(comment)
	}

	ctx := cmd.Context()

	var pool *plagiarism.WorkerPool
	if cfg.Parallel {
		pool = plagiarism.NewWorkerPool(ctx, 0)
		defer pool.Close()
	}

	detector, err := plagiarism.NewDetector(opts, pool, nil)
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	expander, err := loader.NewExpander(include, exclude)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	paths, err := expander.Expand(ctx, args)
	if err != nil {
		return withCode(ExitLoadError, err)
	}
	if len(paths) < 2 {
		return withCode(ExitConfigError, fmt.Errorf("need at least two files to compare, found %d", len(paths)))
	}

	sources, err := loader.New(plagiarism.DefaultPoolSize(), 0).LoadAll(ctx, paths)
	if err != nil {
		return withCode(ExitLoadError, err)
	}

	report, err := detector.Compare(ctx, uuid.New().String(), sources)
	if err != nil {
		if errors.Is(err, plagiarism.ErrNoFingerprints) || errors.Is(err, plagiarism.ErrDuplicateDocument) {
			return withCode(ExitConfigError, err)
		}
		return err
	}

	log.Info().
		Int("documents", len(report.Documents)).
		Int("pairs", len(report.Matches)).
		Dur("duration", report.Duration).
		Msg("Comparison finished")

	return writeReport(cmd.OutOrStdout(), report, minScore, asJSON)
}

// loadConfig reads the environment and lets explicitly set flags win
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = env.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("k") {
		cfg.KGrams, _ = flags.GetInt("k")
	}
	if flags.Changed("w") {
		cfg.WindowSize, _ = flags.GetInt("w")
	}
	if flags.Changed("stop-word") {
		words, _ := flags.GetStringSlice("stop-word")
		cfg.StopWords = append(cfg.StopWords, words...)
	}
	if flags.Changed("stop-words-file") {
		cfg.StopWordsFile, _ = flags.GetString("stop-words-file")
	}
	if flags.Changed("preset") {
		cfg.StopWordsPreset, _ = flags.GetString("preset")
	}
	if flags.Changed("strict") {
		cfg.StrictFingerprints, _ = flags.GetBool("strict")
	}
	if flags.Changed("parallel") {
		cfg.Parallel, _ = flags.GetBool("parallel")
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeReport(w io.Writer, report *plagiarism.Report, minScore float64, asJSON bool) error {
	matches := report.Filter(minScore)
	if asJSON {
		return outputJSON(w, jsonReport{
			KGrams:    report.KGrams,
			Window:    report.Window,
			Documents: report.Stats(),
			Results:   matches,
		})
	}
	return outputTable(w, matches)
}
