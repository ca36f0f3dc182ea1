package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/tarsnap-pruner/internal/report"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	first := report.Report{
		RunID:    "run-1",
		Hostname: "db1",
		KeyFile:  "/keys/tarsnap-db1.key",
		Started:  time.Unix(1000, 0),
		Duration: 1500 * time.Millisecond,
		Kept:     17,
		Pruned:   []string{"db1-2015-01-01", "db1-2015-01-02"},
		Failed:   []report.Failure{{Archive: "db1-2015-01-03", Error: "locked"}},
		Unknown:  1,
	}
	second := report.Report{
		RunID:    "run-2",
		Hostname: "web1",
		Started:  time.Unix(2000, 0),
		Err:      errors.New("listing archives: unreachable"),
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "run-2", entries[0].RunID)
	assert.Equal(t, "listing archives: unreachable", entries[0].Error)

	got := entries[1]
	assert.Equal(t, "db1", got.Hostname)
	assert.Equal(t, 17, got.Kept)
	assert.Equal(t, 2, got.Pruned)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Unknown)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, got.Started.Equal(time.Unix(1000, 0)))

	dels, err := s.Deletions(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, dels, 3)
	assert.Equal(t, "deleted", dels[0].Outcome)
	assert.Equal(t, "failed", dels[2].Outcome)
	assert.Equal(t, "locked", dels[2].Error)
}

func TestStore_DryRunHasNoDeletions(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Record(ctx, report.Report{RunID: "dry", Hostname: "db1", DryRun: true, Pruned: []string{"a"}}))

	entries, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].DryRun)

	dels, err := s.Deletions(ctx, "dry")
	require.NoError(t, err)
	assert.Empty(t, dels)
}

func TestStore_DuplicateRunRejected(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	r := report.Report{RunID: "run-1", Hostname: "db1", Pruned: []string{"a"}}

	require.NoError(t, s.Record(ctx, r))
	assert.Error(t, s.Record(ctx, r))

	dels, err := s.Deletions(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, dels, 1, "failed insert must roll back")
}

func TestStore_SameHostnameDifferentKeyFiles(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	for _, key := range []string{"/keys/alpha.key", "/keys/beta.key"} {
		require.NoError(t, s.Record(ctx, report.Report{
			RunID:    "run-1",
			Hostname: "unknown",
			KeyFile:  key,
			Pruned:   []string{"junk"},
		}))
	}

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	dels, err := s.Deletions(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, dels, 2)
	assert.Equal(t, "/keys/alpha.key", dels[0].KeyFile)
	assert.Equal(t, "/keys/beta.key", dels[1].KeyFile)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), report.Report{RunID: "r", Hostname: "h"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
