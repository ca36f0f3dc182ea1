package config

import (
	"time"

	"github.com/raoulx24/tarsnap-pruner/internal/logging"
	"github.com/raoulx24/tarsnap-pruner/internal/retention"
)

type Config struct {
	Tarsnap      TarsnapConfig   `yaml:"tarsnap"`
	Keys         KeysConfig      `yaml:"keys"`
	Caches       CachesConfig    `yaml:"caches"`
	Retention    RetentionConfig `yaml:"retention"`
	Concurrency  int             `yaml:"concurrency"`
	Schedule     ScheduleConfig  `yaml:"schedule"`
	Logging      LoggingConfig   `yaml:"logging"`
	Metrics      MetricsConfig   `yaml:"metrics"`
	History      HistoryConfig   `yaml:"history"`
	ConfigReload ReloadConfig    `yaml:"configReload"`
}

type TarsnapConfig struct {
	Command string `yaml:"command"` // binary name or path
}

type KeysConfig struct {
	Directory string `yaml:"directory"`
	Pattern   string `yaml:"pattern"` // glob inside Directory
}

type CachesConfig struct {
	Directory string `yaml:"directory"` // parent of the per-batch cache-* dirs
}

// RetentionConfig holds the tier boundaries in days. Unset boundaries take
// the defaults; zero is a legal daily boundary, hence the pointers.
type RetentionConfig struct {
	DailyBoundary  *int `yaml:"dailyBoundary"`
	WeeklyBoundary *int `yaml:"weeklyBoundary"`
}

// Policy resolves the boundaries into a retention policy.
func (r RetentionConfig) Policy() retention.Policy {
	p := retention.DefaultPolicy()
	if r.DailyBoundary != nil {
		p.DailyBoundary = *r.DailyBoundary
	}
	if r.WeeklyBoundary != nil {
		p.WeeklyBoundary = *r.WeeklyBoundary
	}
	return p
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"` // standard 5-field spec, daemon only
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json", "logfmt"
}

func (l LoggingConfig) Options() logging.Options {
	return logging.Options{Level: l.Level, Format: l.Format}
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node exporter textfile written after each run
	Listen   string `yaml:"listen"`   // daemon /metrics address
}

type HistoryConfig struct {
	Path string `yaml:"path"` // sqlite database, empty disables history
}

type ReloadConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Method         string        `yaml:"method"` // "auto", "poll", "fsnotify"
	PollInterval   time.Duration `yaml:"pollInterval"`
	DebounceWindow time.Duration `yaml:"debounceWindow"`
}
