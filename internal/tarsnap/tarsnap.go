// Package tarsnap is the narrow capability interface over the tarsnap tool:
// listing a machine's archives, rebuilding a cache, and deleting archives.
package tarsnap

import (
	"context"
	"strings"
)

// Client talks to tarsnap on behalf of one key file.
type Client interface {
	// ListArchives returns the raw archive names known to the service.
	ListArchives(ctx context.Context) ([]string, error)
	// Fsck rebuilds the local cache in cacheDir. Deletion needs a fresh cache.
	Fsck(ctx context.Context, cacheDir string) error
	// Delete removes one archive using the cache in cacheDir.
	Delete(ctx context.Context, name, cacheDir string) error
}

// Factory returns the Client for a key file.
type Factory func(keyFile string) Client

// SplitNames splits newline delimited tarsnap output into archive names.
func SplitNames(out string) []string {
	return strings.Fields(out)
}
