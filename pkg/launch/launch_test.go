package launch

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLaunchMissingBinary(t *testing.T) {
	err := Launch(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrBinaryMissing) {
		t.Errorf("Expected ErrBinaryMissing, got: %v", err)
	}
}

func TestLaunchDirectory(t *testing.T) {
	err := Launch(t.TempDir())
	if !errors.Is(err, ErrBinaryMissing) {
		t.Errorf("Expected ErrBinaryMissing for directory, got: %v", err)
	}
}

func TestLaunchUsesBinaryDirAsCwd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test script requires a POSIX shell")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "cwd.txt")

	// The script records its working directory; Launch must have set it to
	// the script's own directory.
	script := "#!/bin/sh\npwd > cwd.txt\n"
	binPath := filepath.Join(dir, "app.sh")
	if err := os.WriteFile(binPath, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}

	if err := Launch(binPath); err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}

	// Launch does not wait for the child; poll for its output
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Launched process never wrote its marker")
		}
		time.Sleep(10 * time.Millisecond)
	}

	content, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("Failed to read marker: %v", err)
	}

	got := string(content)
	resolved, _ := filepath.EvalSymlinks(dir)
	if got != dir+"\n" && got != resolved+"\n" {
		t.Errorf("Expected cwd %s, got %q", dir, got)
	}
}
