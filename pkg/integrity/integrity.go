// Package integrity computes and checks file content digests.
package integrity

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// ErrChecksumMismatch is returned when a file digest does not match the
// expected value.
var ErrChecksumMismatch = errors.New("integrity: checksum mismatch")

// copy buffer size; keeps memory flat regardless of file size
const blockSize = 64 * 1024

// newHasher returns a hash for the named algorithm.
func newHasher(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5", "":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
}

// FileDigest streams the file at path through the named hash algorithm and
// returns the hex encoded digest. A missing file yields an empty digest and
// no error; any other read failure is returned to the caller.
func FileDigest(path, algorithm string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}

	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify compares the digest of the file at path against expected.
// An empty expected digest verifies trivially; digests compare
// case-insensitively.
func Verify(path, algorithm, expected string) error {
	if expected == "" {
		return nil
	}

	actual, err := FileDigest(path, algorithm)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}

	return nil
}
