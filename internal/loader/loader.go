// Package loader reads the documents of a run from disk.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/RishiKendai/winnow/internal/plagiarism"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNotText is returned for inputs that are not UTF-8 text
var ErrNotText = errors.New("not a text file")

// LoadError identifies the document that could not be read
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load document %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader reads files with bounded concurrency
type Loader struct {
	concurrency int
	maxBytes    int64
}

// New returns a loader. maxBytes <= 0 disables the size limit.
func New(concurrency int, maxBytes int64) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{concurrency: concurrency, maxBytes: maxBytes}
}

// Load reads one file and rejects binary content
func (l *Loader) Load(path string) (plagiarism.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return plagiarism.Source{}, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return plagiarism.Source{}, &LoadError{Path: path, Err: fmt.Errorf("%w: is a directory", ErrNotText)}
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return plagiarism.Source{}, &LoadError{
			Path: path,
			Err:  fmt.Errorf("file is %d bytes, limit is %d", info.Size(), l.maxBytes),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return plagiarism.Source{}, &LoadError{Path: path, Err: err}
	}
	if err := CheckText(data); err != nil {
		return plagiarism.Source{}, &LoadError{Path: path, Err: err}
	}

	return plagiarism.Source{ID: path, Text: string(data)}, nil
}

// LoadAll reads every path and returns the sources in input order. The first
// failure cancels the remaining reads and is returned as a *LoadError.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]plagiarism.Source, error) {
	sources := make([]plagiarism.Source, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := l.Load(path)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Int("documents", len(sources)).Msg("Documents loaded")
	return sources, nil
}

// CheckText accepts empty input and anything detected as text
func CheckText(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrNotText)
	}
	for mtype := mimetype.Detect(data); mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("text/plain") {
			return nil
		}
	}
	return fmt.Errorf("%w: detected %s", ErrNotText, mimetype.Detect(data).String())
}
