package memory

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store persists a serialized student profile. The profile treats the
// backend as opaque; a JSON file is the default, but anything that can
// hold one blob per student works.
type Store interface {
	// Save persists the profile bytes, replacing any previous state.
	Save(data []byte) error

	// Load returns the persisted bytes, or nil when nothing was saved yet.
	Load() ([]byte, error)

	// Close releases backend resources.
	Close() error
}

// JSONStore keeps one student profile in a JSON file on disk. An empty
// path disables persistence, which keeps in-memory profiles usable
// without configuration.
type JSONStore struct {
	FilePath string
}

// NewJSONStore creates a store backed by the given file path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{FilePath: path}
}

// Save writes the profile, creating parent directories as needed.
func (s *JSONStore) Save(data []byte) error {
	if s.FilePath == "" {
		return nil
	}

	if dir := filepath.Dir(s.FilePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create profile directory: %w", err)
		}
	}
	if err := os.WriteFile(s.FilePath, data, 0644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Load reads the profile. A missing file is not an error; the student
// simply has no history yet.
func (s *JSONStore) Load() ([]byte, error) {
	if s.FilePath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.FilePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return data, nil
}

// Close is a no-op for file-backed stores.
func (s *JSONStore) Close() error {
	return nil
}

var _ Store = (*JSONStore)(nil)
