//go:build linux

package shortcut

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDesktopCreator(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	c := New()
	if !c.Supported() {
		t.Fatal("Expected shortcut support on linux")
	}

	exe := filepath.Join(tmpHome, "installed_program", "app", "bin")
	if err := c.Create("Slipway App", exe); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	entryPath := filepath.Join(tmpHome, ".local", "share", "applications", "Slipway App.desktop")
	content, err := os.ReadFile(entryPath)
	if err != nil {
		t.Fatalf("Expected desktop entry to exist: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "Exec="+exe) {
		t.Errorf("Desktop entry missing Exec line: %q", text)
	}
	if !strings.Contains(text, "Path="+filepath.Dir(exe)) {
		t.Errorf("Desktop entry missing Path line: %q", text)
	}
}
