//go:build unix

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/tarsnap-pruner/internal/config"
)

// stub prints the given archives on --list-archives and fails to delete
// any archive whose name contains "broken".
const stubScript = `#!/bin/sh
echo "$@" >> "$(dirname "$0")/calls.log"
case "$1" in
--list-archives)
	cat "$(dirname "$0")/archives"
	;;
-d)
	case "$7" in
	*broken*) echo "archive is locked" >&2; exit 1 ;;
	esac
	;;
esac
`

type fixture struct {
	dir      string
	config   string
	textfile string
}

func newFixture(t *testing.T, archives ...string) *fixture {
	t.Helper()
	for _, k := range []string{config.EnvTarsnapCommand, config.EnvKeyDirectory, config.EnvCachesDirectory,
		config.EnvDailyBoundary, config.EnvWeeklyBoundary} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	keys := filepath.Join(dir, "keys")
	require.NoError(t, os.MkdirAll(keys, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(keys, "tarsnap-host.key"), nil, 0o600))

	bin := filepath.Join(dir, "tarsnap")
	require.NoError(t, os.WriteFile(bin, []byte(stubScript), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archives"), []byte(strings.Join(archives, "\n")+"\n"), 0o600))

	f := &fixture{
		dir:      dir,
		config:   filepath.Join(dir, "config.yaml"),
		textfile: filepath.Join(dir, "pruner.prom"),
	}
	cfg := fmt.Sprintf(`
tarsnap:
  command: %s
keys:
  directory: %s
caches:
  directory: %s
metrics:
  textfile: %s
history:
  path: %s
logging:
  level: error
`, bin, keys, filepath.Join(dir, "caches"), f.textfile, filepath.Join(dir, "history.db"))
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o600))

	t.Cleanup(func() {
		cfgFile, envFiles, logLevel = "", nil, ""
		runFlags.dryRun = false
		planFlags.machine = ""
		historyFlags.limit, historyFlags.run = 20, ""
	})
	return f
}

func (f *fixture) calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, "calls.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func today() string { return time.Now().Format("2006-01-02") }

func TestRun_DryRunDeletesNothing(t *testing.T) {
	f := newFixture(t, "host-"+today(), "host-junk")

	out, err := execute("run", "--dry-run", "--config", f.config)
	require.NoError(t, err)

	assert.Contains(t, out, "host")
	assert.Contains(t, out, "(1)")
	for _, c := range f.calls(t) {
		assert.True(t, strings.HasPrefix(c, "--list-archives"), "unexpected call %q", c)
	}
}

func TestRun_PrunesAndRecords(t *testing.T) {
	f := newFixture(t, "host-"+today(), "host-junk")

	out, err := execute("run", "--config", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	calls := f.calls(t)
	require.Len(t, calls, 3)
	assert.True(t, strings.HasPrefix(calls[1], "--fsck"))
	assert.True(t, strings.HasSuffix(calls[2], "-f host-junk"))

	prom, err := os.ReadFile(f.textfile)
	require.NoError(t, err)
	key := filepath.Join(f.dir, "keys", "tarsnap-host.key")
	assert.Contains(t, string(prom), `tarsnap_pruner_deletions_total{hostname="host",key_file="`+key+`",outcome="deleted"} 1`)

	out, err = execute("history", "--config", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, "host")
}

func TestRun_FailedDeletionExitsNonZero(t *testing.T) {
	f := newFixture(t, "host-"+today(), "host-broken", "host-junk")

	_, err := execute("run", "--config", f.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 machines reported errors")

	// the failure did not stop the next deletion
	assert.True(t, strings.HasSuffix(f.calls(t)[len(f.calls(t))-1], "-f host-junk"))
}

func TestRun_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.config, []byte("retention:\n  dailyBoundary: 400\n"), 0o600))

	_, err := execute("run", "--config", f.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestPlan(t *testing.T) {
	f := newFixture(t, "host-"+today(), "host-junk")

	out, err := execute("plan", "--config", f.config, "--machine", "host")
	require.NoError(t, err)
	assert.Contains(t, out, "host: 1 kept, 1 to prune")
	assert.Contains(t, out, "host-junk")
	assert.Contains(t, out, "prune")
	assert.Contains(t, out, "daily")

	_, err = execute("plan", "--config", f.config, "--machine", "nope")
	assert.Error(t, err)
}

func TestHistory_RequiresPath(t *testing.T) {
	f := newFixture(t)
	cfg, err := os.ReadFile(f.config)
	require.NoError(t, err)
	stripped := strings.Replace(string(cfg), "history:\n  path:", "historyDisabled:\n  path:", 1)
	require.NoError(t, os.WriteFile(f.config, []byte(stripped), 0o600))

	_, err = execute("history", "--config", f.config)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute("version", "--short")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
