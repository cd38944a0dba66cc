package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeZip creates a zip archive with the given name->content entries.
// A trailing slash in the name creates a directory entry.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create archive file: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			if _, err := w.Create(name); err != nil {
				t.Fatalf("Failed to add dir entry: %v", err)
			}
			continue
		}
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to add entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize archive: %v", err)
	}
}

func TestInstall(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "update.zip")
	targetDir := filepath.Join(tmpDir, "installed")

	writeZip(t, archivePath, map[string]string{
		"app/":        "",
		"app/bin":     "binary payload",
		"app/app.cfg": "setting=1",
		"README.md":   "docs",
	})

	var reports []float64
	err := Install(archivePath, targetDir, func(p float64) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(targetDir, "app", "bin"))
	if err != nil {
		t.Fatalf("Failed to read extracted file: %v", err)
	}
	if string(content) != "binary payload" {
		t.Errorf("Unexpected extracted content: %q", content)
	}

	if len(reports) == 0 {
		t.Fatal("Expected progress reports")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Errorf("Progress went backwards: %v -> %v", reports[i-1], reports[i])
		}
	}
	if last := reports[len(reports)-1]; last != 100 {
		t.Errorf("Expected final progress 100, got %v", last)
	}
}

func TestInstallReplacesExistingTree(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "update.zip")
	targetDir := filepath.Join(tmpDir, "installed")

	// Pre-populate the target with a file the archive does not contain
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		t.Fatalf("Failed to create target: %v", err)
	}
	stale := filepath.Join(targetDir, "stale.dat")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatalf("Failed to write stale file: %v", err)
	}

	writeZip(t, archivePath, map[string]string{"app/bin": "new"})

	if err := Install(archivePath, targetDir, nil); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected stale file to be removed by install")
	}
	if _, err := os.Stat(filepath.Join(targetDir, "app", "bin")); err != nil {
		t.Errorf("Expected new tree in place: %v", err)
	}
}

func TestInstallUnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "update.tar.gz")
	if err := os.WriteFile(archivePath, []byte("not a zip"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	err := Install(archivePath, filepath.Join(tmpDir, "out"), nil)
	if !errors.Is(err, ErrUnsupportedArchive) {
		t.Errorf("Expected ErrUnsupportedArchive, got: %v", err)
	}
}

func TestInstallMissingArchive(t *testing.T) {
	tmpDir := t.TempDir()
	err := Install(filepath.Join(tmpDir, "nope.zip"), filepath.Join(tmpDir, "out"), nil)
	if !errors.Is(err, ErrExtractFailed) {
		t.Errorf("Expected ErrExtractFailed, got: %v", err)
	}
}

func TestInstallCorruptArchive(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "update.zip")
	if err := os.WriteFile(archivePath, []byte("garbage bytes"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	err := Install(archivePath, filepath.Join(tmpDir, "out"), nil)
	if !errors.Is(err, ErrExtractFailed) {
		t.Errorf("Expected ErrExtractFailed, got: %v", err)
	}
}

func TestInstallRejectsPathEscape(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := filepath.Join(tmpDir, "update.zip")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	w := zip.NewWriter(f)
	entry, err := w.CreateHeader(&zip.FileHeader{Name: "../escape.txt"})
	if err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}
	entry.Write([]byte("evil"))
	w.Close()
	f.Close()

	err = Install(archivePath, filepath.Join(tmpDir, "out"), nil)
	if !errors.Is(err, ErrExtractFailed) {
		t.Fatalf("Expected ErrExtractFailed for escaping entry, got: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(tmpDir, "escape.txt")); !os.IsNotExist(statErr) {
		t.Error("Escaping entry must not be written outside the target")
	}
}
