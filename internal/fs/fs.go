// Package fs defines the filesystem abstraction used by tarsnap-pruner:
// key file discovery and the scratch cache directories handed to tarsnap.
package fs

import "context"

type FS interface {
	// Glob returns the paths matching pattern, sorted.
	Glob(pattern string) ([]string, error)
	// MkdirTemp creates a uniquely named directory under dir, creating dir
	// itself if needed.
	MkdirTemp(dir, pattern string) (string, error)
	RemoveAll(ctx context.Context, path string) error
}
