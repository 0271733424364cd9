package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern indicates a glob pattern could not be compiled
var ErrInvalidPattern = errors.New("invalid glob pattern")

var skippedDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
}

// Expander turns command line arguments into document paths. Files are kept
// as given; directories are walked and filtered by the glob patterns.
type Expander struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewExpander compiles the include and exclude patterns. Patterns match
// either the base name or the slash separated path below the walked
// directory. No include patterns means every file is included.
func NewExpander(include, exclude []string) (*Expander, error) {
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}
	return &Expander{include: inc, exclude: exc}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

// Expand returns the document paths in argument order, directory contents
// in lexical order. Missing arguments are reported as *LoadError.
func (e *Expander) Expand(ctx context.Context, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, &LoadError{Path: arg, Err: err}
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if _, skip := skippedDirs[d.Name()]; skip && path != arg {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			if e.matches(filepath.ToSlash(rel), d.Name()) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Path: arg, Err: err}
		}
	}
	return paths, nil
}

func (e *Expander) matches(rel, name string) bool {
	for _, m := range e.exclude {
		if m.Match(rel) || m.Match(name) {
			return false
		}
	}
	if len(e.include) == 0 {
		return true
	}
	for _, m := range e.include {
		if m.Match(rel) || m.Match(name) {
			return true
		}
	}
	return false
}
