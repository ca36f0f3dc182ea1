package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// OSFS is the FS backed by the local filesystem.
type OSFS struct{}

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (o *OSFS) MkdirTemp(dir, pattern string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", err
		}
	}
	return os.MkdirTemp(dir, pattern)
}

// RemoveAll retries on transient errors, so a cache directory briefly held
// by a finishing tarsnap process is still cleaned up.
func (o *OSFS) RemoveAll(ctx context.Context, path string) error {
	return retry(ctx, "remove", func() error {
		return os.RemoveAll(path)
	})
}
