// Package machine represents one backed-up host, identified by its tarsnap
// key file, and runs the deletion batch for it.
package machine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/raoulx24/tarsnap-pruner/internal/archive"
	"github.com/raoulx24/tarsnap-pruner/internal/fs"
	"github.com/raoulx24/tarsnap-pruner/internal/logging"
	"github.com/raoulx24/tarsnap-pruner/internal/tarsnap"
)

// UnknownHostname is reported for key files not named tarsnap-HOST.key.
const UnknownHostname = "unknown"

var (
	// ErrList wraps failures to enumerate a machine's archives.
	ErrList = errors.New("listing archives")
	// ErrRefresh wraps a failed cache refresh; no archive was deleted.
	ErrRefresh = errors.New("refreshing cache")
)

var hostnamePattern = regexp.MustCompile(`tarsnap-(.*)\.key$`)

// Hostname extracts HOST from a key file named tarsnap-HOST.key. Only the
// base name is considered.
func Hostname(keyFile string) string {
	if m := hostnamePattern.FindStringSubmatch(filepath.Base(keyFile)); m != nil {
		return m[1]
	}
	return UnknownHostname
}

// Machine is one key file and the client bound to it.
type Machine struct {
	keyFile   string
	hostname  string
	cachesDir string
	client    tarsnap.Client
	fs        fs.FS
	log       logging.Logger
}

// New creates a machine. A nil filesystem means the OS filesystem.
func New(keyFile, cachesDir string, client tarsnap.Client, filesystem fs.FS, log logging.Logger) *Machine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	hostname := Hostname(keyFile)
	return &Machine{
		keyFile:   keyFile,
		hostname:  hostname,
		cachesDir: cachesDir,
		client:    client,
		fs:        filesystem,
		log:       log.With("hostname", hostname),
	}
}

// Discover returns one machine per key file in keyDir matching pattern,
// sorted by key file path.
func Discover(filesystem fs.FS, keyDir, pattern, cachesDir string, factory tarsnap.Factory, log logging.Logger) ([]*Machine, error) {
	if filesystem == nil {
		filesystem = fs.New()
	}
	keys, err := filesystem.Glob(filepath.Join(keyDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("discovering key files: %w", err)
	}
	sort.Strings(keys)

	machines := make([]*Machine, 0, len(keys))
	for _, k := range keys {
		machines = append(machines, New(k, cachesDir, factory(k), filesystem, log))
	}
	return machines, nil
}

func (m *Machine) KeyFile() string  { return m.keyFile }
func (m *Machine) Hostname() string { return m.hostname }

// Archives lists the machine's archives, sorted by name.
func (m *Machine) Archives(ctx context.Context) ([]archive.Archive, error) {
	names, err := m.client.ListArchives(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrList, m.hostname, err)
	}
	sort.Strings(names)
	m.log.Debug("listed archives", "count", len(names))
	return archive.FromNames(names), nil
}
