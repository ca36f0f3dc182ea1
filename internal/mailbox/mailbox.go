package mailbox

import (
	"context"
	"sync"
)

// Mailbox is a single-slot buffer where the latest job always wins.
// It is NOT a queue. It holds at most one pending job, so triggers that
// arrive while a run is in progress collapse into one follow-up run.
type Mailbox[T any] struct {
	mu    sync.Mutex
	job   *T
	ready chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores a job in the mailbox, replacing any existing job.
// It never blocks.
func (m *Mailbox[T]) Put(j T) {
	m.mu.Lock()
	m.job = &j
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Take blocks until a job is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	for {
		if j := m.TryTake(); j != nil {
			return *j, true
		}
		select {
		case <-m.ready:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// TryTake returns the job if present, or nil if empty.
// It never blocks.
func (m *Mailbox[T]) TryTake() *T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.job == nil {
		return nil
	}

	j := m.job
	m.job = nil
	return j
}

// HasJob reports whether a job is currently waiting.
func (m *Mailbox[T]) HasJob() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job != nil
}
