package queue

import (
	"context"
	"time"
)

// memoryQueue is a process-local queue. It backs single-node deployments
// without Redis and the test suite.
type memoryQueue struct {
	ready chan Task
}

// NewMemory returns an in-process queue with a bounded buffer.
func NewMemory() Queue {
	return &memoryQueue{ready: make(chan Task, 1024)}
}

func (q *memoryQueue) Enqueue(ctx context.Context, task Task) error {
	delay := time.Until(task.NotBefore)
	if delay > 0 {
		// The timer goroutine blocks on a full buffer rather than dropping
		// the retry; it unblocks as soon as a worker drains the queue.
		time.AfterFunc(delay, func() {
			q.ready <- task
		})
		return nil
	}
	select {
	case q.ready <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case task := <-q.ready:
		return &task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
