package watcher

import (
	"os"
	"path/filepath"
)

// detect calls onChange if the watched file changed since the last call.
func (w *Watcher) detect() {
	w.mu.RLock()
	path := filepath.Join(w.dir, w.name)
	last := w.lastModTime
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		// mid-replace by an editor; the next event or tick retries
		w.log.Debug("stat failed", "path", path, "error", err)
		return
	}

	mod := info.ModTime()
	if mod.Equal(last) {
		return
	}

	w.mu.Lock()
	w.lastModTime = mod
	w.mu.Unlock()

	w.log.Info("file changed", "path", path)
	w.onChange()
}
