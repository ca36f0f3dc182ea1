// Package fsprobe checks whether fsnotify works reliably for a directory.
// Network and some container filesystems accept a watch but never deliver
// events; the watcher falls back to polling for those.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultTimeout is how long Probe waits for the first event.
const DefaultTimeout = 200 * time.Millisecond

// Result reports whether fsnotify is usable and why.
type Result struct {
	FsnotifySupported bool   // true if events are delivered
	Reason            string // explanation when unsupported
}

// Probe tests whether fsnotify reports a create+rename in dir within DefaultTimeout.
func Probe(dir string) Result {
	return ProbeWithTimeout(dir, DefaultTimeout)
}

// ProbeWithTimeout is Probe with an explicit wait.
func ProbeWithTimeout(dir string, timeout time.Duration) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir() {
		return Result{false, "not a directory"}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{false, fmt.Sprintf("fsnotify unavailable: %v", err)}
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return Result{false, fmt.Sprintf("cannot watch directory: %v", err)}
	}

	// unique names, several processes may probe the same directory
	f, err := os.CreateTemp(dir, ".fsprobe-*")
	if err != nil {
		return Result{false, fmt.Sprintf("cannot create temp file: %v", err)}
	}
	tmp := f.Name()
	f.Close()

	final := tmp + ".done"
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return Result{false, fmt.Sprintf("rename failed: %v", err)}
	}
	defer os.Remove(final)

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-w.Events:
			if filepath.Dir(ev.Name) == filepath.Clean(dir) && ev.Op&(fsnotify.Rename|fsnotify.Create|fsnotify.Write) != 0 {
				return Result{true, ""}
			}
		case <-deadline:
			return Result{false, "no events received (rename not reported)"}
		}
	}
}
