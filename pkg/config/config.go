package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the settings file kept beside the updater executable.
const ConfigFileName = "slipway.json"

// Config represents the slipway configuration. It is created once at startup
// and passed into each component; nothing reads it from ambient globals.
type Config struct {
	// Directory the installation is anchored at. Resolved from the updater
	// executable's own location when empty; never an OS temp directory.
	RootDir string `json:"root_dir,omitempty"`
	// URL of the remote version manifest (JSON {"version": "..."})
	ManifestURL string `json:"manifest_url"`
	// URL of the remote application archive (zip)
	ArchiveURL string `json:"archive_url"`
	// Relative path of the application executable under the install directory
	AppPath string `json:"app_path"`
	// Expected archive digest in hex; empty disables verification
	ExpectedDigest string `json:"expected_digest,omitempty"`
	// Digest algorithm (md5, sha1, sha256); md5 when empty
	DigestAlgorithm string `json:"digest_algorithm,omitempty"`
}

// Paths represents the on-disk layout derived from the root directory
type Paths struct {
	// Root directory for all slipway data
	Root string
	// Installed-version marker file
	VersionMarker string
	// Temporary archive location used during a cycle
	TempArchive string
	// Directory the application tree is installed into
	InstallDir string
	// Full path of the installed application executable
	Executable string
	// Update-cycle history database
	HistoryDB string
	// Log file for headless runs
	LogFile string
}

// DefaultConfig returns the default configuration anchored at root.
func DefaultConfig(root string) *Config {
	return &Config{
		RootDir:     root,
		ManifestURL: "http://updates.example.com/app/version.json",
		ArchiveURL:  "http://updates.example.com/app/app.zip",
		AppPath:     filepath.Join("app", "bin"),
	}
}

// ExecutableDir resolves the directory containing the running updater binary.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate updater executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		resolved = exe
	}
	return filepath.Dir(resolved), nil
}

// GetPaths returns the slipway file layout based on the root directory
func (c *Config) GetPaths() *Paths {
	root := c.RootDir
	return &Paths{
		Root:          root,
		VersionMarker: filepath.Join(root, "local_version.json"),
		TempArchive:   filepath.Join(root, "temp_update.zip"),
		InstallDir:    filepath.Join(root, "installed_program"),
		Executable:    filepath.Join(root, "installed_program", filepath.FromSlash(c.AppPath)),
		HistoryDB:     filepath.Join(root, "history.db"),
		LogFile:       filepath.Join(root, "slipway.log"),
	}
}

// Algorithm returns the configured digest algorithm, defaulting to md5.
func (c *Config) Algorithm() string {
	if c.DigestAlgorithm == "" {
		return "md5"
	}
	return c.DigestAlgorithm
}

// Load loads the configuration from the file beside the updater executable.
// Pass a non-empty root to override the anchor (used by tests and the
// -root flag). A missing file yields the defaults.
func Load(root string) (*Config, error) {
	if root == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}
		root = dir
	}

	configFile := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(root), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig(root)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// The anchor always comes from the process location or the flag, not
	// from the file's own contents.
	config.RootDir = root

	return config, nil
}

// Save saves the configuration beside the installation.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.RootDir, 0755); err != nil {
		return fmt.Errorf("failed to create root directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configFile := filepath.Join(c.RootDir, ConfigFileName)
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnsureDirectories creates the directories a cycle writes into.
func (c *Config) EnsureDirectories() error {
	paths := c.GetPaths()
	for _, dir := range []string{
		paths.Root,
		paths.InstallDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
