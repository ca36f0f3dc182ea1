package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ FS = (*OSFS)(nil)

func TestOSFS_Glob_Sorted(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"tarsnap-b.key", "tarsnap-a.key", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o600))
	}

	got, err := New().Glob(filepath.Join(dir, "*.key"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "tarsnap-a.key"),
		filepath.Join(dir, "tarsnap-b.key"),
	}, got)
}

func TestOSFS_MkdirTempAndRemoveAll(t *testing.T) {
	root := filepath.Join(t.TempDir(), "caches")
	f := New()

	dir, err := f.MkdirTemp(root, "cache-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "cache-"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache"), []byte("x"), 0o600))

	require.NoError(t, f.RemoveAll(context.Background(), dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestOSFS_RemoveAll_RunsWithCancelledContext(t *testing.T) {
	f := New()
	dir, err := f.MkdirTemp(t.TempDir(), "cache-")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.RemoveAll(ctx, dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRetry(t *testing.T) {
	old := retryBase
	retryBase = time.Millisecond
	defer func() { retryBase = old }()

	t.Run("transient then success", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), "op", func() error {
			calls++
			if calls < 3 {
				return syscall.EBUSY
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops at once", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), "op", func() error {
			calls++
			return syscall.EACCES
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, syscall.EACCES))
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), "op", func() error {
			calls++
			return syscall.EAGAIN
		})
		require.Error(t, err)
		assert.Equal(t, maxRetries, calls)
	})
}
