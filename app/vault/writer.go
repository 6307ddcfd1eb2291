package vault

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipvault/clipvault/app/errs"
)

// Writer persists files under the vault root. Name collisions are uniquified
// ("name.md" becomes "name (1).md"), never silently overwritten.
type Writer struct {
	root string
}

func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

func (w *Writer) Root() string { return w.root }

// Write stores data at relPath under the vault root, creating directories as
// needed. Returns the relative path actually used, which differs from relPath
// when a collision was uniquified.
func (w *Writer) Write(relPath string, data []byte) (string, error) {
	if w.root == "" {
		return "", &errs.SaveError{Path: relPath, Err: fmt.Errorf("vault path is not configured")}
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", &errs.SaveError{Path: relPath, Err: fmt.Errorf("path escapes the vault root")}
	}

	fullPath := filepath.Join(w.root, cleaned)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", &errs.SaveError{Path: relPath, Err: err}
	}

	finalPath, err := uniquify(fullPath)
	if err != nil {
		return "", &errs.SaveError{Path: relPath, Err: err}
	}

	if err := os.WriteFile(finalPath, data, 0644); err != nil {
		return "", &errs.SaveError{Path: relPath, Err: err}
	}

	finalRel, err := filepath.Rel(w.root, finalPath)
	if err != nil {
		finalRel = cleaned
	}

	slog.Debug("File written", "path", finalRel, "bytes", len(data))

	return finalRel, nil
}

// uniquify finds the first free variant of path: path, then "name (1).ext",
// "name (2).ext" and so on.
func uniquify(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	for i := 1; i < 1000; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("unable to find a free filename for %s", path)
}
