// Package source loads the complete contents of a GRIB file into memory,
// either from the local filesystem or from an S3-compatible object store.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const s3Scheme = "s3://"

var (
	// ErrNotFound reports a missing file or object.
	ErrNotFound = errors.New("source: not found")
	// ErrInvalidPath reports a path or URL that cannot be loaded.
	ErrInvalidPath = errors.New("source: invalid path")
	// ErrNoS3Client reports an s3:// URL given to a loader without a client.
	ErrNoS3Client = errors.New("source: no S3 client configured")
)

// Loader reads whole files. S3 may be nil when only local paths are used.
type Loader struct {
	S3 S3API
}

// IsS3 reports whether path is an s3:// URL.
func IsS3(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// Load returns the full contents of path, an "s3://bucket/key" URL or a
// local file path. The file or object body is always released before Load
// returns.
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if IsS3(path) {
		bucket, key, err := parseS3URL(path)
		if err != nil {
			return nil, err
		}
		if l.S3 == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoS3Client, path)
		}
		return getObject(ctx, l.S3, bucket, key)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("source: %w", err)
	}
	return buf, nil
}
