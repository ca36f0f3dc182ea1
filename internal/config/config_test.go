package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/tarsnap-pruner/internal/retention"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvTarsnapCommand, EnvKeyDirectory, EnvCachesDirectory, EnvDailyBoundary, EnvWeeklyBoundary} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRUNER_KEYS", "/etc/keys")

	path := writeFile(t, "config.yaml", `
tarsnap:
  command: /usr/local/bin/tarsnap
keys:
  directory: $(PRUNER_KEYS)
  pattern: "tarsnap-*.key"
caches:
  directory: /var/cache/pruner
retention:
  dailyBoundary: 14
  weeklyBoundary: 60
concurrency: 2
schedule:
  cron: "30 4 * * *"
logging:
  level: debug
  format: json
metrics:
  textfile: /var/lib/node_exporter/pruner.prom
history:
  path: /var/lib/pruner/history.db
configReload:
  enabled: true
  method: poll
  pollInterval: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/tarsnap", cfg.Tarsnap.Command)
	assert.Equal(t, "/etc/keys", cfg.Keys.Directory)
	assert.Equal(t, "tarsnap-*.key", cfg.Keys.Pattern)
	assert.Equal(t, "/var/cache/pruner", cfg.Caches.Directory)
	assert.Equal(t, retention.Policy{DailyBoundary: 14, WeeklyBoundary: 60}, cfg.Retention.Policy())
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "30 4 * * *", cfg.Schedule.Cron)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/lib/node_exporter/pruner.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "/var/lib/pruner/history.db", cfg.History.Path)
	assert.Equal(t, 10*time.Second, cfg.ConfigReload.PollInterval)
	assert.Equal(t, DefaultDebounce, cfg.ConfigReload.DebounceWindow)
}

func TestLoad_DefaultsAndEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvKeyDirectory, "/keys")
	t.Setenv(EnvCachesDirectory, "/caches")
	t.Setenv(EnvTarsnapCommand, "/opt/tarsnap")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/tarsnap", cfg.Tarsnap.Command)
	assert.Equal(t, "/keys", cfg.Keys.Directory)
	assert.Equal(t, "/caches", cfg.Caches.Directory)
	assert.Equal(t, DefaultKeyPattern, cfg.Keys.Pattern)
	assert.Equal(t, retention.DefaultPolicy(), cfg.Retention.Policy())
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, DefaultCron, cfg.Schedule.Cron)
	assert.Equal(t, "auto", cfg.ConfigReload.Method)
}

func TestLoad_FileWinsOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvKeyDirectory, "/from-env")
	t.Setenv(EnvWeeklyBoundary, "100")

	path := writeFile(t, "config.yaml", "keys:\n  directory: /from-file\nretention:\n  weeklyBoundary: 200\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from-file", cfg.Keys.Directory)
	assert.Equal(t, 200, cfg.Retention.Policy().WeeklyBoundary)
}

func TestLoad_PartialRetentionKeepsOtherDefault(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "keys:\n  directory: /k\nretention:\n  dailyBoundary: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, retention.Policy{DailyBoundary: 0, WeeklyBoundary: 365}, cfg.Retention.Policy())
}

func TestLoad_BoundariesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvKeyDirectory, "/k")
	t.Setenv(EnvDailyBoundary, "7")
	t.Setenv(EnvWeeklyBoundary, "30")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, retention.Policy{DailyBoundary: 7, WeeklyBoundary: 30}, cfg.Retention.Policy())
}

func TestLoad_BadEnvBoundary(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvKeyDirectory, "/k")
	t.Setenv(EnvDailyBoundary, "seven")

	_, err := Load("")
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "retention.dailyBoundary", verr.Errors[0].Field)
}

func TestLoad_ValidationCollectsAllErrors(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
keys:
  pattern: "sub/*.key"
retention:
  dailyBoundary: 400
  weeklyBoundary: 365
concurrency: -1
schedule:
  cron: "every day"
logging:
  format: xml
configReload:
  method: inotify
`)

	_, err := Load(path)
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, f := range []string{"keys.directory", "keys.pattern", "retention", "concurrency", "schedule.cron", "logging", "configReload.method"} {
		assert.True(t, fields[f], "missing %s", f)
	}
	assert.Contains(t, err.Error(), "7 errors")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, "pruner.env", "KEY_DIRECTORY=/dotenv/keys\nWEEKLY_BOUNDARY=120\n")
	t.Cleanup(func() {
		os.Unsetenv(EnvKeyDirectory)
		os.Unsetenv(EnvWeeklyBoundary)
	})
	// godotenv does not override variables that are already set
	os.Unsetenv(EnvKeyDirectory)
	os.Unsetenv(EnvWeeklyBoundary)

	require.NoError(t, LoadEnv(envFile))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/dotenv/keys", cfg.Keys.Directory)
	assert.Equal(t, 120, cfg.Retention.Policy().WeeklyBoundary)
}

func TestLoadEnv_MissingExplicitFile(t *testing.T) {
	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidationError_SingleMessage(t *testing.T) {
	err := ValidationError{Errors: []FieldError{{Field: "a", Message: "b"}}}
	assert.Equal(t, "configuration validation failed: a: b", err.Error())
}
