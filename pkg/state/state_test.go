package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAbsentInitializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_version.json")
	store := NewVersionStore(path)

	if v := store.Load(); v != DefaultVersion {
		t.Errorf("Expected %s for absent marker, got %s", DefaultVersion, v)
	}

	// Load must have initialized the marker on disk
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected marker file to be created: %v", err)
	}
	var rec struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Marker is not valid JSON: %v", err)
	}
	if rec.Version != DefaultVersion {
		t.Errorf("Expected initialized version %s, got %s", DefaultVersion, rec.Version)
	}
}

func TestLoadUnparsableResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_version.json")
	if err := os.WriteFile(path, []byte("{{{not json"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	store := NewVersionStore(path)
	if v := store.Load(); v != DefaultVersion {
		t.Errorf("Expected %s for corrupt marker, got %s", DefaultVersion, v)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_version.json")
	store := NewVersionStore(path)

	if err := store.Save("1.1.0"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if v := store.Load(); v != "1.1.0" {
		t.Errorf("Expected 1.1.0, got %s", v)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local_version.json")
	store := NewVersionStore(path)

	if err := store.Save("2.0.0"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "local_version.json" {
		t.Errorf("Expected only the marker file, found %d entries", len(entries))
	}
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "local_version.json")
	store := NewVersionStore(path)

	if err := store.Save("1.0.0"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if v := store.Load(); v != "1.0.0" {
		t.Errorf("Expected 1.0.0, got %s", v)
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks do not apply")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("Failed to make dir read-only: %v", err)
	}
	defer os.Chmod(dir, 0755)

	store := NewVersionStore(filepath.Join(dir, "local_version.json"))
	err := store.Save("1.0.0")
	if !errors.Is(err, ErrStateSave) {
		t.Errorf("Expected ErrStateSave, got: %v", err)
	}
}
