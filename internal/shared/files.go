package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandPaths resolves each pattern to regular files.
//
// Patterns use doublestar syntax, so "notes/**/*.pdf" walks subdirectories.
// A pattern that matches nothing is an error; the result is sorted and de-duplicated.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidInput, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no files match %q", ErrInvalidInput, pattern)
		}

		for _, m := range matches {
			clean := filepath.Clean(m)
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			paths = append(paths, clean)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// RequireExt returns an error naming the first path whose extension is not ext (case-insensitive).
func RequireExt(paths []string, ext string) error {
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ext) {
			return fmt.Errorf("%w: %s is not a %s file", ErrInvalidInput, p, ext)
		}
	}
	return nil
}

// VerifyAndReadFile reads path after checking it exists and is not a directory.
func VerifyAndReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: file path", ErrMissingArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}

	return os.ReadFile(path)
}

// ValidateJSON reports whether data is syntactically valid JSON.
func ValidateJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: data is not valid JSON", ErrInvalidInput)
	}
	return nil
}
