package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process Dispatcher/Consumer used for local dev and
// tests. Delayed jobs are released by timers; there is no redelivery, so
// Ack is a no-op.
type MemoryQueue struct {
	jobs chan Job

	mu     sync.Mutex
	timers []*time.Timer
	closed bool
}

func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 256
	}
	return &MemoryQueue{jobs: make(chan Job, buffer)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job, opts ...EnqueueOption) error {
	o := applyOptions(opts)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.mu.Unlock()

	if o.delay <= 0 {
		select {
		case q.jobs <- job:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	t := time.AfterFunc(o.delay, func() {
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if !closed {
			q.jobs <- job
		}
	})
	q.timers = append(q.timers, t)
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context) (*Delivery, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrClosed
		}
		return &Delivery{Job: job}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(ctx context.Context, d *Delivery) error {
	return nil
}

// Len reports the number of jobs currently ready. Used by tests.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, t := range q.timers {
		t.Stop()
	}
}
