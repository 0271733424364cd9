package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// StopWordsFile is the YAML layout of a stop-word list
type StopWordsFile struct {
	StopWords []string `yaml:"stop_words"`
}

var presets = map[string][]string{
	"python": {
		"False", "None", "True", "and", "as", "assert", "break", "class", "continue", "def", "del",
		"elif", "else", "except", "finally", "for", "from", "global", "if", "import", "in", "is",
		"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
	},
	"go": {
		"break", "case", "chan", "const", "continue", "default", "defer", "else", "fallthrough",
		"for", "func", "go", "goto", "if", "import", "interface", "map", "package", "range",
		"return", "select", "struct", "switch", "type", "var",
	},
	"c": {
		"auto", "break", "case", "char", "const", "continue", "default", "do", "double", "else",
		"enum", "extern", "float", "for", "goto", "if", "int", "long", "register", "return",
		"short", "signed", "sizeof", "static", "struct", "switch", "typedef", "union", "unsigned",
		"void", "volatile", "while",
	},
}

// Preset returns a copy of a built-in stop-word list
func Preset(name string) ([]string, bool) {
	words, ok := presets[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), words...), true
}

// PresetNames lists the built-in presets in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadStopWords reads a YAML stop-word file
func LoadStopWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stop-word file: %w", err)
	}

	var file StopWordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse stop-word file %s: %w", path, err)
	}

	return MergeStopWords(file.StopWords), nil
}

// MergeStopWords concatenates lists, keeping the first occurrence of each
// word and dropping empty entries. Order is kept since earlier words win
// when several match at the same position.
func MergeStopWords(lists ...[]string) []string {
	seen := make(map[string]bool)
	merged := make([]string, 0)
	for _, list := range lists {
		for _, word := range list {
			if word == "" || seen[word] {
				continue
			}
			seen[word] = true
			merged = append(merged, word)
		}
	}
	return merged
}
