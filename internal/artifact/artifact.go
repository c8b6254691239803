package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound means the artifact file does not exist yet. Pollers treat
	// this as "nothing new", never as a failure.
	ErrNotFound = errors.New("artifact not found")

	// ErrCorrupt means the file exists but does not parse as the expected
	// structure.
	ErrCorrupt = errors.New("artifact corrupt")
)

// Store persists a single JSON document at a fixed path. Each stage owns
// exactly one writer per artifact; writes go through a temp file and rename
// so a concurrent reader never observes a partial payload.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Read unmarshals the current document into v. A missing file maps to
// ErrNotFound, unparsable content to ErrCorrupt.
func (s *Store) Read(v any) error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return nil
}

// Write serializes v next to the canonical path and renames it into place.
// The rename is what makes the new document visible, so readers see either
// the old payload or the new one, never a mix.
func (s *Store) Write(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
