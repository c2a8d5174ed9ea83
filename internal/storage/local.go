package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalStore reads and writes snapshot files in a directory. This matches the
// original deployment where the capture process drops live_<user>.json next
// to the service.
type LocalStore struct {
	dir string
}

// Ensure LocalStore implements Store
var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a directory-backed store, creating the directory if
// needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Store writes data to a file in the snapshot directory.
func (s *LocalStore) Store(filename string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", filename, err)
	}
	logrus.Debugf("Stored snapshot %s", path)
	return nil
}

// Retrieve reads a file from the snapshot directory. A missing file is
// reported as os.ErrNotExist so callers can distinguish absence from
// read failures.
func (s *LocalStore) Retrieve(filename string) ([]byte, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns snapshot filenames matching a prefix.
func (s *LocalStore) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if prefix == "" || strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Delete removes a snapshot file. Deleting a missing file is not an error.
func (s *LocalStore) Delete(filename string) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot %s: %w", filename, err)
	}
	return nil
}
