// Package launch starts the installed application as an independent process.
package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrBinaryMissing is returned when the executable is absent at launch time.
var ErrBinaryMissing = errors.New("launch: installed binary not found")

// Launch starts the executable at path as a detached process. The working
// directory is set to the executable's own directory so its relative-path
// assumptions hold regardless of where the updater runs from. Launch returns
// once the process has started; it does not wait for it.
func Launch(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBinaryMissing, path)
		}
		return fmt.Errorf("failed to stat executable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrBinaryMissing, path)
	}

	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", path, err)
	}

	// Detach: let the child outlive the updater without becoming a zombie
	// we'd have to reap.
	go func() { _ = cmd.Wait() }()

	return nil
}
