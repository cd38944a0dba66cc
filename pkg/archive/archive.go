// Package archive installs application trees from downloaded archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedArchive is returned for archive formats other than zip.
	ErrUnsupportedArchive = errors.New("archive: unsupported archive format")

	// ErrExtractFailed is returned when extraction fails mid-way. The target
	// directory may be partially populated at that point.
	ErrExtractFailed = errors.New("archive: extraction failed")
)

// ProgressFunc receives extraction progress as a percentage in [0,100].
type ProgressFunc func(percent float64)

// Install replaces targetDir with the contents of the zip archive at
// archivePath. Any pre-existing target tree is removed first; the install is
// destructive and non-incremental. Progress is emitted after each extracted
// entry. A failure mid-extraction leaves the partial tree in place for the
// caller to report.
func Install(archivePath, targetDir string, onProgress ProgressFunc) error {
	if !strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, archivePath)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: archive not found: %s", ErrExtractFailed, archivePath)
		}
		return fmt.Errorf("%w: failed to open archive: %w", ErrExtractFailed, err)
	}
	defer r.Close()

	// Clear the previous installation; the new tree fully replaces the old.
	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("%w: failed to clear target directory: %w", ErrExtractFailed, err)
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create target directory: %w", ErrExtractFailed, err)
	}

	total := len(r.File)
	for i, f := range r.File {
		if err := extractEntry(f, targetDir); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrExtractFailed, f.Name, err)
		}
		if onProgress != nil {
			onProgress(float64(i+1) / float64(total) * 100)
		}
	}

	if total == 0 && onProgress != nil {
		onProgress(100)
	}

	return nil
}

// extractEntry writes a single archive entry under targetDir, refusing
// entries whose resolved path escapes it.
func extractEntry(f *zip.File, targetDir string) error {
	destPath := filepath.Join(targetDir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(destPath, filepath.Clean(targetDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes target directory")
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}
