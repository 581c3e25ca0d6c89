package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ttscraper/pkg/models"
)

// tempSuffix marks in-progress writes; such files never count as downloaded
const tempSuffix = ".part"

// Manager handles the on-disk layout of downloaded videos: one directory
// per author under a root directory
type Manager struct {
	root string
}

// NewManager creates a storage manager rooted at root. Directories are
// created on demand.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Dir returns the destination directory for an author's videos. The author
// must be a single path element so the directory stays under the root.
func (m *Manager) Dir(author string) (string, error) {
	if !models.IsPathElement(author) {
		return "", fmt.Errorf("author %q is not a valid directory name", author)
	}
	return filepath.Join(m.root, author), nil
}

// EnsureDir creates dir and its parents if missing. It is safe to call
// concurrently and repeatedly.
func (m *Manager) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Snapshot is the set of file names present in a directory at one point in time
type Snapshot map[string]struct{}

// Has reports whether name was present when the snapshot was taken
func (s Snapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Snapshot lists dir once. Temporary files from interrupted writes are ignored.
func (m *Manager) Snapshot(dir string) (Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	snap := make(Snapshot, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), tempSuffix) {
			continue
		}
		snap[entry.Name()] = struct{}{}
	}
	return snap, nil
}

// Save streams r into dir/name. Data goes to an exclusively created temporary
// file in the same directory which is synced, closed and then renamed over
// the destination. On any failure the temporary file is removed and the
// destination is left untouched.
func (m *Manager) Save(dir, name string, r io.Reader) (int64, error) {
	if !models.IsPathElement(name) {
		return 0, fmt.Errorf("%q is not a valid file name", name)
	}
	filename := filepath.Join(dir, name)

	out, err := os.CreateTemp(dir, name+".*"+tempSuffix)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to flush %s: %w", name, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}
