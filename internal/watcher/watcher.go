// Package watcher monitors the configuration file and reports changes.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/tarsnap-pruner/internal/config"
	"github.com/raoulx24/tarsnap-pruner/internal/fsprobe"
	"github.com/raoulx24/tarsnap-pruner/internal/logging"
)

// Watcher observes one file and calls onChange when its modification time advances.
type Watcher struct {
	mu sync.RWMutex

	dir      string
	name     string
	interval time.Duration
	mode     string
	debounce time.Duration

	log logging.Logger

	lastModTime time.Time

	onChange func()
}

// New creates a watcher for path. The current modification time is the
// baseline, so an unchanged file never fires.
func New(path string, cfg config.ReloadConfig, log logging.Logger, onChange func()) *Watcher {
	w := &Watcher{
		dir:      filepath.Dir(path),
		name:     filepath.Base(path),
		interval: cfg.PollInterval,
		mode:     cfg.Method,
		debounce: cfg.DebounceWindow,
		log:      log,
		onChange: onChange,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
	}
	return w
}

// Start chooses the correct watching strategy based on config and blocks
// until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := w.dir
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "auto":
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}
