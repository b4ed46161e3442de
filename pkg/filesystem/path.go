package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafePath joins filename onto baseDir, rejecting anything that would escape
// the base directory. Used for key-material file paths built from
// configuration or node names.
func SafePath(baseDir, filename string) (string, error) {
	clean := filepath.Clean(filename)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid filename %q: path traversal not allowed", filename)
	}

	full := filepath.Join(baseDir, clean)

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base directory: %w", err)
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if !strings.HasPrefix(absFull, absBase) {
		return "", fmt.Errorf("path %q escapes base directory %q", filename, baseDir)
	}

	return full, nil
}

// ValidateFilePath rejects standalone paths with traversal components.
func ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if strings.Contains(filepath.Clean(path), "..") {
		return fmt.Errorf("invalid path %q: path traversal not allowed", path)
	}
	return nil
}
