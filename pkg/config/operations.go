package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ConfigureOperation represents a configuration operation
type ConfigureOperation struct {
	Name        string
	Description string
	Handler     func(*Config, string) error
}

// GetOperations returns available configuration operations
func GetOperations() []ConfigureOperation {
	return []ConfigureOperation{
		{
			Name:        "manifest-url",
			Description: "Set the remote version manifest URL",
			Handler:     configureManifestURL,
		},
		{
			Name:        "archive-url",
			Description: "Set the remote archive URL",
			Handler:     configureArchiveURL,
		},
		{
			Name:        "app-path",
			Description: "Set the executable path relative to the install directory",
			Handler:     configureAppPath,
		},
		{
			Name:        "digest",
			Description: "Set the expected archive digest (\"algo:hex\", empty to disable)",
			Handler:     configureDigest,
		},
		{
			Name:        "show",
			Description: "Show current configuration",
			Handler:     showConfig,
		},
	}
}

func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q", u.Scheme)
	}
	return nil
}

func configureManifestURL(cfg *Config, value string) error {
	if err := validateURL(value); err != nil {
		return err
	}
	cfg.ManifestURL = value
	fmt.Printf("Manifest URL set to %s\n", value)
	return cfg.Save()
}

func configureArchiveURL(cfg *Config, value string) error {
	if err := validateURL(value); err != nil {
		return err
	}
	cfg.ArchiveURL = value
	fmt.Printf("Archive URL set to %s\n", value)
	return cfg.Save()
}

func configureAppPath(cfg *Config, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("app path cannot be empty")
	}
	cfg.AppPath = value
	fmt.Printf("Application path set to %s\n", value)
	return cfg.Save()
}

func configureDigest(cfg *Config, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		cfg.ExpectedDigest = ""
		cfg.DigestAlgorithm = ""
		fmt.Println("Digest verification disabled")
		return cfg.Save()
	}

	algo, hexDigest, found := strings.Cut(value, ":")
	if !found {
		// Bare hex keeps the current (or default) algorithm
		hexDigest = algo
		algo = cfg.Algorithm()
	}
	switch strings.ToLower(algo) {
	case "md5", "sha1", "sha256":
	default:
		return fmt.Errorf("unsupported digest algorithm: %s", algo)
	}

	cfg.DigestAlgorithm = strings.ToLower(algo)
	cfg.ExpectedDigest = strings.ToLower(hexDigest)
	fmt.Printf("Expected digest set (%s)\n", cfg.DigestAlgorithm)
	return cfg.Save()
}

func showConfig(cfg *Config, _ string) error {
	paths := cfg.GetPaths()
	fmt.Println("Current configuration:")
	fmt.Printf("Root directory:  %s\n", cfg.RootDir)
	fmt.Printf("Manifest URL:    %s\n", cfg.ManifestURL)
	fmt.Printf("Archive URL:     %s\n", cfg.ArchiveURL)
	fmt.Printf("Executable:      %s\n", paths.Executable)
	if cfg.ExpectedDigest != "" {
		fmt.Printf("Digest:          %s [%s]\n", cfg.ExpectedDigest, cfg.Algorithm())
	} else {
		fmt.Println("Digest:          [verification disabled]")
	}
	return nil
}
