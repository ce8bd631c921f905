package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// pageObjectSuffix marks compilable inputs.
const pageObjectSuffix = ".utam.json"

// Discover walks the input directory and returns the page-object files
// selected by the include/exclude patterns, sorted by the walk order
// (lexical within each directory).
func Discover(cfg Config) ([]string, error) {
	var out []string

	root := cfg.InputDirectory

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		if !strings.HasSuffix(path, pageObjectSuffix) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if cfg.selected(rel) {
			out = append(out, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover inputs under %s: %w", root, err)
	}

	return out, nil
}

// selected applies the include patterns (any match wins; an empty list
// includes everything) and then the exclude patterns. Patterns match the
// path relative to the input directory, or its base name.
func (c Config) selected(rel string) bool {
	included := len(c.Include) == 0

	for _, pattern := range c.Include {
		if matchPattern(pattern, rel) {
			included = true

			break
		}
	}

	if !included {
		return false
	}

	for _, pattern := range c.Exclude {
		if matchPattern(pattern, rel) {
			return false
		}
	}

	return true
}

func matchPattern(pattern, rel string) bool {
	if ok, err := filepath.Match(pattern, rel); err == nil && ok {
		return true
	}

	ok, err := filepath.Match(pattern, filepath.Base(rel))

	return err == nil && ok
}

// OutputPath maps an input file to its generated Rust file: the output
// directory mirrors the input directory structure and the ".utam.json"
// suffix becomes ".rs".
func OutputPath(cfg Config, inputPath string) (string, error) {
	rel, err := filepath.Rel(cfg.InputDirectory, inputPath)
	if err != nil {
		return "", fmt.Errorf("map output path for %s: %w", inputPath, err)
	}

	stem := strings.TrimSuffix(rel, pageObjectSuffix)

	return filepath.Join(cfg.OutputDirectory, stem+".rs"), nil
}
