package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartFsNotify calls detect() once events for the file have been quiet for
// the debounce window. The directory is watched rather than the file, so
// atomic replacements (write temp + rename) are seen.
func (w *Watcher) StartFsNotify(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	w.mu.RLock()
	dir, name := w.dir, w.name
	w.mu.RUnlock()

	if err := fw.Add(dir); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-fire:
			fire = nil
			w.detect()

		case ev, ok := <-fw.Events:
			if !ok {
				w.log.Error("events channel closed")
				return nil
			}
			if filepath.Base(ev.Name) != name || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("config event", "name", ev.Name, "op", ev.Op)

			debounce := w.debounceWindow()
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) debounceWindow() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.debounce
}
