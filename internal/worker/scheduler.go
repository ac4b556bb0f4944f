package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/application/services"
)

// Scheduler is the safety net behind delayed re-enqueues: it periodically
// sweeps webhook logs whose retry time has arrived and puts them back on
// the queue. A lost delayed job costs one sweep interval, not the retry.
type Scheduler struct {
	webhooks application.WebhookStore
	events   *services.WebhookService
	interval time.Duration
	batch    int
	logger   *slog.Logger

	now func() time.Time
}

func NewScheduler(webhooks application.WebhookStore, events *services.WebhookService, interval time.Duration, batch int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		webhooks: webhooks,
		events:   events,
		interval: interval,
		batch:    batch,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	due, err := s.webhooks.DueWebhooks(ctx, s.now(), s.batch)
	if err != nil {
		s.logger.Error("failed to query due webhooks", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	for _, d := range due {
		if err := s.events.EnqueueDelivery(ctx, d, 0); err != nil {
			s.logger.Error("failed to re-enqueue due webhook", "webhook_id", d.Log.ID, "error", err)
		}
	}

	s.logger.Info("re-enqueued due webhooks", "count", len(due))
}
