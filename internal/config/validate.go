package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	Field   string // dotted path, e.g. "retention.dailyBoundary"
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks cfg after defaults were applied.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Keys.Directory == "" {
		errs = append(errs, FieldError{Field: "keys.directory", Message: "is required"})
	}
	if strings.ContainsRune(cfg.Keys.Pattern, '/') {
		errs = append(errs, FieldError{Field: "keys.pattern", Message: "must not contain a path separator"})
	}

	if err := cfg.Retention.Policy().Validate(); err != nil {
		errs = append(errs, FieldError{Field: "retention", Message: err.Error()})
	}

	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{Field: "concurrency", Message: "must be at least 1"})
	}

	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		errs = append(errs, FieldError{Field: "schedule.cron", Message: err.Error()})
	}

	if err := cfg.Logging.Options().Validate(); err != nil {
		errs = append(errs, FieldError{Field: "logging", Message: err.Error()})
	}

	switch cfg.ConfigReload.Method {
	case "auto", "poll", "fsnotify":
	default:
		errs = append(errs, FieldError{Field: "configReload.method", Message: fmt.Sprintf("unknown method %q", cfg.ConfigReload.Method)})
	}
	if cfg.ConfigReload.PollInterval < 0 {
		errs = append(errs, FieldError{Field: "configReload.pollInterval", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
