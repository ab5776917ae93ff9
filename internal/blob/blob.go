// Package blob stores user-uploaded files on disk under a single directory.
//
// Names are sanitized before use; a re-uploaded name silently overwrites the
// previous file.
package blob

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// maxNameLength caps sanitized file names.
const maxNameLength = 100

var unsafeChars = regexp.MustCompile(`[^A-Za-zА-Яа-я0-9._-]`)

// Store persists uploaded files under a base directory.
type Store struct {
	dir string
}

// NewStore creates the base directory if needed and returns the store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SanitizeName strips any path components and unsafe characters from an
// uploaded file name and bounds its length. An empty name becomes "file".
func SanitizeName(name string) string {
	if name == "" {
		return "file"
	}
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// Save writes the bytes under the sanitized name and returns the stored
// name. An existing file with the same name is overwritten.
func (s *Store) Save(data []byte, name string) (string, error) {
	safe := SanitizeName(name)
	path := filepath.Join(s.dir, safe)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("blob.Save: write failed", "name", safe, "error", err)
		return "", fmt.Errorf("save file %q: %w", safe, err)
	}
	slog.Debug("blob.Save: file stored", "name", safe, "bytes", len(data))
	return safe, nil
}

// List returns the stored file names in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Path resolves a stored name to its on-disk path, reporting whether the
// file exists. The name is sanitized again so callback data cannot escape
// the base directory.
func (s *Store) Path(name string) (string, bool) {
	path := filepath.Join(s.dir, SanitizeName(name))
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
