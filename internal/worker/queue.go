package worker

import "context"

// provides a simple in-memory job queue shared by the run loops.

type Queue struct {
	Ch chan Job
}

func NewQueue(size int) *Queue {
	return &Queue{Ch: make(chan Job, size)}
}

func (q *Queue) Push(j Job) {
	q.Ch <- j
}

// Close marks the end of the run; Pop drains what is left, then reports false.
func (q *Queue) Close() {
	close(q.Ch)
}

func (q *Queue) Pop(ctx context.Context) (Job, bool) {
	select {
	case j, ok := <-q.Ch:
		return j, ok
	case <-ctx.Done():
		return Job{}, false
	}
}
