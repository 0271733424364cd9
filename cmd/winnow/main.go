// Package main provides the winnow CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra leaves printing to us
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "winnow",
	Short: "Find copied passages across text files",
	Long: `winnow fingerprints text files with the winnowing algorithm and reports,
for every ordered pair of files, how much of one file's fingerprint set also
appears in the other, together with the suspect file's line numbers.

Defaults come from the environment (K_GRAMS, WINDOW_SIZE, STOP_WORDS,
STOP_WORDS_FILE, STOP_WORDS_PRESET, LOG_LEVEL) and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
}

// Exit codes
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitLoadError   = 3
)

// exitError carries the process exit code with the error
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}
