package watcher

import (
	"context"
	"time"
)

// StartPolling triggers detect() on a fixed interval. An interval changed
// through UpdateConfig applies from the next tick.
func (w *Watcher) StartPolling(ctx context.Context) {
	interval := w.pollInterval()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.detect()
			if next := w.pollInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (w *Watcher) pollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.interval <= 0 {
		return time.Second
	}
	return w.interval
}
