// Package logging provides the structured logger used across tarsnap-pruner.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the logging surface components depend on. Messages are followed
// by alternating key/value pairs.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
}

// charmLogger adapts *log.Logger so that With stays within Logger.
type charmLogger struct {
	*log.Logger
}

func (l charmLogger) With(keyvals ...interface{}) Logger {
	return charmLogger{l.Logger.With(keyvals...)}
}

// Options mirrors the logging section of the configuration.
type Options struct {
	Level  string
	Format string
}

// Validate reports whether the level and format are recognised.
func (o Options) Validate() error {
	if o.Level != "" {
		if _, err := log.ParseLevel(strings.ToLower(o.Level)); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}
	_, err := parseFormat(o.Format)
	return err
}

// New builds a logger writing to stderr.
func New(opts Options) (Logger, error) {
	return NewWithWriter(os.Stderr, opts)
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(w io.Writer, opts Options) (Logger, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	level := log.InfoLevel
	if opts.Level != "" {
		level, _ = log.ParseLevel(strings.ToLower(opts.Level))
	}
	formatter, _ := parseFormat(opts.Format)

	return charmLogger{log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Formatter:       formatter,
	})}, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() Logger {
	return charmLogger{log.New(io.Discard)}
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return 0, fmt.Errorf("logging: unknown format %q", format)
	}
}
