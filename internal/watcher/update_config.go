package watcher

import (
	"github.com/raoulx24/tarsnap-pruner/internal/config"
)

// UpdateConfig applies reloaded timings. The mode takes effect on the next Start.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.interval = cfg.PollInterval
	w.mode = cfg.Method
	w.debounce = cfg.DebounceWindow
}
