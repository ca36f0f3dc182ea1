package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// Environment variables consulted when the file leaves a setting empty.
const (
	EnvTarsnapCommand  = "TARSNAP_COMMAND"
	EnvKeyDirectory    = "KEY_DIRECTORY"
	EnvCachesDirectory = "CACHES_DIRECTORY"
	EnvDailyBoundary   = "DAILY_BOUNDARY"
	EnvWeeklyBoundary  = "WEEKLY_BOUNDARY"
)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. With no arguments it loads ./.env if present.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Load reads the YAML file at path, falls back to the environment for unset
// settings, applies defaults and validates. An empty path configures from the
// environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("unmarshalling yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setIfEmpty(&cfg.Tarsnap.Command, EnvTarsnapCommand)
	setIfEmpty(&cfg.Keys.Directory, EnvKeyDirectory)
	setIfEmpty(&cfg.Caches.Directory, EnvCachesDirectory)

	var errs []FieldError
	if cfg.Retention.DailyBoundary == nil {
		v, err := envInt(EnvDailyBoundary)
		if err != nil {
			errs = append(errs, FieldError{Field: "retention.dailyBoundary", Message: err.Error()})
		}
		cfg.Retention.DailyBoundary = v
	}
	if cfg.Retention.WeeklyBoundary == nil {
		v, err := envInt(EnvWeeklyBoundary)
		if err != nil {
			errs = append(errs, FieldError{Field: "retention.weeklyBoundary", Message: err.Error()})
		}
		cfg.Retention.WeeklyBoundary = v
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func setIfEmpty(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func envInt(key string) (*int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s=%q is not an integer", key, raw)
	}
	return &v, nil
}
