package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrManifestFetch is returned when the version manifest cannot be retrieved.
	ErrManifestFetch = errors.New("fetch: manifest fetch failed")

	// ErrDownloadFailed is returned when the archive download fails.
	ErrDownloadFailed = errors.New("fetch: archive download failed")
)

const (
	manifestTimeout = 10 * time.Second
	archiveTimeout  = 30 * time.Second

	// copy chunk size for progress granularity
	chunkSize = 8 * 1024
)

// client implements the Client interface over plain HTTP
type client struct {
	manifestClient *http.Client
	archiveClient  *http.Client
}

// NewClient creates a new update-server client. The manifest request carries
// a short total timeout; the archive request bounds only connection setup and
// the wait for response headers, so an actively streaming body of any size
// can complete.
func NewClient() Client {
	return newClient(manifestTimeout, archiveTimeout)
}

func newClient(manifestTimeout, archiveTimeout time.Duration) *client {
	dialer := &net.Dialer{Timeout: archiveTimeout}
	return &client{
		manifestClient: &http.Client{Timeout: manifestTimeout},
		archiveClient: &http.Client{
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: archiveTimeout,
			},
		},
	}
}

// FetchManifest gets the remote version manifest. A manifest without a
// version field reports "0.0.0".
func (c *client) FetchManifest(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrManifestFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.manifestClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status: %s", ErrManifestFetch, resp.Status)
	}

	var manifest Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("%w: failed to decode manifest: %w", ErrManifestFetch, err)
	}

	if manifest.Version == "" {
		manifest.Version = "0.0.0"
	}

	return &manifest, nil
}

// DownloadArchive streams the remote archive to destPath. On any failure the
// partially written file is removed so a truncated artifact is never left
// behind. Progress is emitted after each chunk when the total size is known;
// a terminal 100 is always emitted on success.
func (c *client) DownloadArchive(ctx context.Context, url, destPath string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrDownloadFailed, err)
	}

	resp, err := c.archiveClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status: %s", ErrDownloadFailed, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", ErrDownloadFailed, err)
	}

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to create file: %w", ErrDownloadFailed, err)
	}

	total := resp.ContentLength // -1 when the header is absent
	var downloaded int64
	buf := make([]byte, chunkSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				f.Close()
				os.Remove(destPath)
				return fmt.Errorf("%w: failed to write file: %w", ErrDownloadFailed, writeErr)
			}
			downloaded += int64(n)
			if total > 0 && onProgress != nil {
				onProgress(float64(downloaded) / float64(total) * 100)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(destPath)
			return fmt.Errorf("%w: %w", ErrDownloadFailed, readErr)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("%w: failed to close file: %w", ErrDownloadFailed, err)
	}

	if onProgress != nil {
		onProgress(100)
	}

	return nil
}
