// Package worker runs the gateway's background processing: payment
// settlement, refund processing, webhook delivery and the retry scheduler.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rivetpay/gateway/internal/metrics"
	"github.com/rivetpay/gateway/internal/queue"
)

// Handler processes one job. A nil return acknowledges the job; an error
// leaves it unacknowledged so the transport redelivers it after the
// visibility timeout.
type Handler func(ctx context.Context, job queue.Job) error

// Pool consumes the job queue with a fixed number of goroutines and routes
// each job to the handler registered for its type.
type Pool struct {
	consumer    queue.Consumer
	handlers    map[string]Handler
	concurrency int
	logger      *slog.Logger
}

func NewPool(consumer queue.Consumer, concurrency int, logger *slog.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		consumer:    consumer,
		handlers:    make(map[string]Handler),
		concurrency: concurrency,
		logger:      logger,
	}
}

func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Run blocks until ctx is cancelled or the queue is closed.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}
	wg.Wait()
	return ctx.Err()
}

func (p *Pool) work(ctx context.Context, id int) {
	for {
		d, err := p.consumer.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrClosed) {
				return
			}
			p.logger.Error("failed to receive job", "worker", id, "error", err)
			if sleepErr := sleepCtx(ctx, time.Second); sleepErr != nil {
				return
			}
			continue
		}

		handler, ok := p.handlers[d.Type]
		if !ok {
			p.logger.Warn("no handler for job type, discarding", "worker", id, "type", d.Type, "job_id", d.ID)
			metrics.JobsTotal.WithLabelValues(d.Type, "unknown").Inc()
			p.ack(ctx, d)
			continue
		}

		if err := handler(ctx, d.Job); err != nil {
			// Leave the job unacknowledged; the transport redelivers it
			// after the visibility timeout.
			p.logger.Error("job failed", "worker", id, "type", d.Type, "job_id", d.ID, "error", err)
			metrics.JobsTotal.WithLabelValues(d.Type, "error").Inc()
			continue
		}

		metrics.JobsTotal.WithLabelValues(d.Type, "ok").Inc()
		p.ack(ctx, d)
	}
}

func (p *Pool) ack(ctx context.Context, d *queue.Delivery) {
	if err := p.consumer.Ack(ctx, d); err != nil {
		p.logger.Error("failed to ack job", "type", d.Type, "job_id", d.ID, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
