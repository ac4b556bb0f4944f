package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/queue"
)

// envelope is the wire format delivered to merchant endpoints. The marshaled
// bytes are stored on the log and signed verbatim on every attempt, so the
// signature stays valid across retries.
type envelope struct {
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// WebhookService creates webhook logs for domain events, hands deliveries
// to the dispatcher, and serves the merchant-facing log endpoints.
type WebhookService struct {
	webhooks   application.WebhookStore
	merchants  application.MerchantStore
	dispatcher queue.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewWebhookService(webhooks application.WebhookStore, merchants application.MerchantStore, dispatcher queue.Dispatcher, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		webhooks:   webhooks,
		merchants:  merchants,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Emit records a domain event as a webhook log and enqueues its first
// delivery. Merchants without a webhook URL are silently skipped.
func (s *WebhookService) Emit(ctx context.Context, merchantID, event string, data any) error {
	merchant, err := s.merchants.MerchantByID(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("load merchant: %w", err)
	}
	if !merchant.HasWebhook() {
		s.logger.Debug("merchant has no webhook url, skipping event",
			"merchant_id", merchantID, "event", event)
		return nil
	}

	payload, err := json.Marshal(envelope{Event: event, Timestamp: s.now().Unix(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	log := domain.NewWebhookLog(merchantID, event, payload)
	if err := s.webhooks.CreateWebhookLog(ctx, log); err != nil {
		return fmt.Errorf("create webhook log: %w", err)
	}

	secret := ""
	if merchant.WebhookSecret != nil {
		secret = *merchant.WebhookSecret
	}
	due := application.DueWebhook{Log: log, WebhookURL: *merchant.WebhookURL, WebhookSecret: secret}
	if err := s.EnqueueDelivery(ctx, due, 0); err != nil {
		// The log row exists with no next_retry_at, so the scheduler cannot
		// recover it. Surface the failure to the caller.
		return fmt.Errorf("enqueue webhook delivery: %w", err)
	}

	s.logger.Info("webhook emitted", "webhook_id", log.ID, "merchant_id", merchantID, "event", event)
	return nil
}

// EnqueueDelivery hands one delivery attempt to the dispatcher. The
// scheduler and the delivery engine's retry path both come through here.
func (s *WebhookService) EnqueueDelivery(ctx context.Context, due application.DueWebhook, delay time.Duration) error {
	job, err := queue.NewJob(queue.JobDeliverWebhook, queue.WebhookJob{
		WebhookLogID:  due.Log.ID,
		MerchantID:    due.Log.MerchantID,
		WebhookURL:    due.WebhookURL,
		WebhookSecret: due.WebhookSecret,
		Event:         due.Log.Event,
		Payload:       json.RawMessage(due.Log.Payload),
	})
	if err != nil {
		return err
	}

	var opts []queue.EnqueueOption
	if delay > 0 {
		opts = append(opts, queue.WithDelay(delay))
	}
	return s.dispatcher.Enqueue(ctx, job, opts...)
}

// List returns a page of the merchant's webhook logs plus the total count.
func (s *WebhookService) List(ctx context.Context, merchantID string, limit, offset int) ([]*domain.WebhookLog, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := s.webhooks.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, application.NewInternalError(err)
	}
	return logs, total, nil
}

// Retry rewinds a log for a user-triggered redelivery, overriding a
// terminal failed status, and enqueues it immediately.
func (s *WebhookService) Retry(ctx context.Context, merchantID, logID string) (*domain.WebhookLog, error) {
	log, err := s.webhooks.WebhookLogByID(ctx, logID)
	if errors.Is(err, application.ErrWebhookLogNotFound) {
		return nil, application.NewNotFoundError("webhook log")
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if log.MerchantID != merchantID {
		return nil, application.NewNotFoundError("webhook log")
	}

	merchant, err := s.merchants.MerchantByID(ctx, merchantID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if !merchant.HasWebhook() {
		return nil, application.NewStateConflictError("merchant has no webhook url configured")
	}

	if err := s.webhooks.ResetForRetry(ctx, logID); err != nil {
		if errors.Is(err, application.ErrWebhookLogNotFound) {
			return nil, application.NewNotFoundError("webhook log")
		}
		return nil, application.NewInternalError(err)
	}
	log.ResetForManualRetry(s.now())

	secret := ""
	if merchant.WebhookSecret != nil {
		secret = *merchant.WebhookSecret
	}
	due := application.DueWebhook{Log: log, WebhookURL: *merchant.WebhookURL, WebhookSecret: secret}
	if err := s.EnqueueDelivery(ctx, due, 0); err != nil {
		// next_retry_at is set, so the scheduler will pick the log up on
		// its next sweep.
		s.logger.Error("failed to enqueue manual webhook retry",
			"webhook_id", log.ID, "merchant_id", merchantID, "error", err)
	}

	s.logger.Info("webhook retry requested", "webhook_id", log.ID, "merchant_id", merchantID)
	return log, nil
}
