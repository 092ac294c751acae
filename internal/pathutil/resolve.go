// Package pathutil provides local path resolution for the CLI.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve expands a leading ~ to the user's home directory and converts
// the result to an absolute path. The path does not have to exist.
func Resolve(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand ~: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Abs(path)
}
