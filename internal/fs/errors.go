package fs

import (
	"errors"
	"syscall"
)

// isTransient reports whether err is worth retrying.

func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ENOTEMPTY) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
