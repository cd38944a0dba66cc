//go:build linux

package shortcut

import (
	"fmt"
	"os"
	"path/filepath"
)

// desktopCreator writes freedesktop .desktop entries under the user's
// applications directory.
type desktopCreator struct{}

func newPlatformCreator() Creator {
	return desktopCreator{}
}

func (desktopCreator) Supported() bool { return true }

func (desktopCreator) Create(name, executablePath string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	appsDir := filepath.Join(home, ".local", "share", "applications")
	if err := os.MkdirAll(appsDir, 0755); err != nil {
		return fmt.Errorf("failed to create applications directory: %w", err)
	}

	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Path=%s
Terminal=false
`, name, executablePath, filepath.Dir(executablePath))

	entryPath := filepath.Join(appsDir, name+".desktop")
	if err := os.WriteFile(entryPath, []byte(entry), 0755); err != nil {
		return fmt.Errorf("failed to write desktop entry: %w", err)
	}

	return nil
}
