// Package security validates paths taken from the environment before they
// are handed to the database driver.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for database paths that cannot be used.
var ErrInvalidPath = errors.New("invalid database path")

// forbidden are characters the SQLite DSN treats specially or that only
// show up in injected values.
var forbidden = []string{"?", "#", ";", "&", "|", "$", "`", "\n", "\r"}

// DatabasePath cleans path, makes it absolute and resolves symlinks when
// the file already exists. ":memory:" is passed through unchanged.
func DatabasePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for _, c := range forbidden {
		if strings.Contains(path, c) {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidPath, path, c)
		}
	}

	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return clean, nil
		}
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return resolved, nil
}
