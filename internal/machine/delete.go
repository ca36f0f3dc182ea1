package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/raoulx24/tarsnap-pruner/internal/archive"
)

// Failure is one archive that could not be deleted.
type Failure struct {
	Archive string
	Err     error
}

// DeleteResult is the per-archive outcome of a deletion batch.
type DeleteResult struct {
	Deleted []string
	Failed  []Failure
}

// Err joins every per-archive failure, or returns nil.
func (r DeleteResult) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("deleting %s: %w", f.Archive, f.Err))
	}
	return errors.Join(errs...)
}

// Delete removes archives sequentially through a fresh, private cache
// directory. Nothing happens for an empty set. A failed refresh aborts the
// batch before any deletion; a failed deletion does not stop the next one.
// The cache directory is removed on every path.
func (m *Machine) Delete(ctx context.Context, archives []archive.Archive) (res DeleteResult, err error) {
	if len(archives) == 0 {
		return res, nil
	}

	cacheDir, err := m.fs.MkdirTemp(m.cachesDir, "cache-")
	if err != nil {
		return res, fmt.Errorf("creating cache directory: %w", err)
	}
	defer func() {
		// cleanup must outlive a cancelled batch
		if rmErr := m.fs.RemoveAll(context.WithoutCancel(ctx), cacheDir); rmErr != nil {
			m.log.Error("removing cache directory", "dir", cacheDir, "error", rmErr)
			err = errors.Join(err, fmt.Errorf("removing cache directory: %w", rmErr))
		}
	}()

	m.log.Debug("refreshing cache", "dir", cacheDir)
	if err := m.client.Fsck(ctx, cacheDir); err != nil {
		return res, fmt.Errorf("%w for %s: %w", ErrRefresh, m.hostname, err)
	}

	for i, a := range archives {
		if ctxErr := ctx.Err(); ctxErr != nil {
			for _, rest := range archives[i:] {
				res.Failed = append(res.Failed, Failure{Archive: rest.Name(), Err: ctxErr})
			}
			return res, ctxErr
		}

		if err := m.client.Delete(ctx, a.Name(), cacheDir); err != nil {
			m.log.Error("deleting archive", "archive", a.Name(), "error", err)
			res.Failed = append(res.Failed, Failure{Archive: a.Name(), Err: err})
			continue
		}
		m.log.Info("deleted archive", "archive", a.Name())
		res.Deleted = append(res.Deleted, a.Name())
	}

	return res, nil
}
