// Package state persists the installed-version marker.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrStateSave is returned when the version marker cannot be written. A
// failed save means the in-memory and on-disk version diverge, so callers
// are expected to surface it rather than drop it.
var ErrStateSave = errors.New("state: failed to save version marker")

// DefaultVersion is reported when no marker exists yet.
const DefaultVersion = "0.0.0"

// record is the on-disk marker schema.
type record struct {
	Version string `json:"version"`
}

// VersionStore owns the installed-version marker file. No other component
// writes this file.
type VersionStore struct {
	path string
}

// NewVersionStore creates a store for the marker at path.
func NewVersionStore(path string) *VersionStore {
	return &VersionStore{path: path}
}

// Path returns the marker file location.
func (s *VersionStore) Path() string {
	return s.path
}

// Load reads the installed version. An absent or unparsable marker yields
// DefaultVersion and re-initializes the file; Load never fails the caller.
func (s *VersionStore) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		_ = s.Save(DefaultVersion)
		return DefaultVersion
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Version == "" {
		_ = s.Save(DefaultVersion)
		return DefaultVersion
	}

	return rec.Version
}

// Save writes the marker via a temporary file and rename, so a reader never
// observes a half-written record.
func (s *VersionStore) Save(version string) error {
	data, err := json.MarshalIndent(record{Version: version}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStateSave, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrStateSave, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrStateSave, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrStateSave, err)
	}

	return nil
}
