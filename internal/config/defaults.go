package config

import (
	"time"

	"github.com/raoulx24/tarsnap-pruner/internal/tarsnap"
)

const (
	DefaultKeyPattern   = "*.key"
	DefaultCron         = "0 3 * * *"
	DefaultPollInterval = 30 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values. Retention boundaries are resolved by
// RetentionConfig.Policy instead, so explicit values are never replaced.
func ApplyDefaults(cfg *Config) {
	if cfg.Tarsnap.Command == "" {
		cfg.Tarsnap.Command = tarsnap.DefaultBinary
	}
	if cfg.Keys.Pattern == "" {
		cfg.Keys.Pattern = DefaultKeyPattern
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultCron
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.ConfigReload.Method == "" {
		cfg.ConfigReload.Method = "auto"
	}
	if cfg.ConfigReload.PollInterval == 0 {
		cfg.ConfigReload.PollInterval = DefaultPollInterval
	}
	if cfg.ConfigReload.DebounceWindow == 0 {
		cfg.ConfigReload.DebounceWindow = DefaultDebounce
	}
}
