package fetch

import "context"

// Manifest is the remote version announcement document.
type Manifest struct {
	Version string `json:"version"` // Dotted-numeric version (e.g., "1.2.0")
}

// ProgressFunc receives download progress as a percentage in [0,100].
// When the response carries no Content-Length only a terminal 100 is emitted.
type ProgressFunc func(percent float64)

// Client defines the interface for remote update-server operations
type Client interface {
	// FetchManifest gets the remote version manifest
	FetchManifest(ctx context.Context, url string) (*Manifest, error)

	// DownloadArchive streams the remote archive to destPath, reporting progress
	DownloadArchive(ctx context.Context, url, destPath string, onProgress ProgressFunc) error
}
