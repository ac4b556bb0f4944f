package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/application/services"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/metrics"
	"github.com/rivetpay/gateway/internal/queue"
	"github.com/rivetpay/gateway/internal/signature"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// maxResponseBody bounds how much of the endpoint's response is persisted.
const maxResponseBody = 4096

// Delay before attempt n+1, indexed by the number of attempts already made.
// Index 0 is unused since the first attempt is enqueued without delay.
var (
	RetrySchedule     = []time.Duration{0, 60 * time.Second, 300 * time.Second, 1800 * time.Second, 7200 * time.Second}
	TestRetrySchedule = []time.Duration{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}
)

// DeliveryProcessor performs one webhook delivery attempt per job: it signs
// the stored payload snapshot, POSTs it, and records the outcome. A non-2xx
// or network failure schedules the next attempt until the ceiling.
type DeliveryProcessor struct {
	webhooks application.WebhookStore
	events   *services.WebhookService
	client   *http.Client
	schedule []time.Duration
	logger   *slog.Logger

	now func() time.Time
}

func NewDeliveryProcessor(webhooks application.WebhookStore, events *services.WebhookService, timeout time.Duration, schedule []time.Duration, logger *slog.Logger) *DeliveryProcessor {
	return &DeliveryProcessor{
		webhooks: webhooks,
		events:   events,
		client:   &http.Client{Timeout: timeout},
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *DeliveryProcessor) Process(ctx context.Context, job queue.Job) error {
	var payload queue.WebhookJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("malformed webhook job, discarding", "job_id", job.ID, "error", err)
		return nil
	}

	log, err := p.webhooks.WebhookLogByID(ctx, payload.WebhookLogID)
	if errors.Is(err, application.ErrWebhookLogNotFound) {
		p.logger.Warn("webhook job references missing log, discarding", "webhook_id", payload.WebhookLogID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load webhook log: %w", err)
	}
	if log.Status != domain.WebhookPending || log.Attempts >= domain.MaxDeliveryAttempts {
		return nil
	}

	code, body := p.attempt(ctx, payload.WebhookURL, payload.WebhookSecret, log.Payload)
	attempts := log.Attempts + 1

	if code >= 200 && code < 300 {
		if err := p.webhooks.RecordSuccess(ctx, log.ID, attempts, code, body); err != nil {
			return fmt.Errorf("record webhook success: %w", err)
		}
		metrics.WebhookAttemptsTotal.WithLabelValues("success").Inc()
		p.logger.Info("webhook delivered",
			"webhook_id", log.ID, "event", log.Event, "attempts", attempts, "response_code", code)
		return nil
	}

	if attempts >= domain.MaxDeliveryAttempts {
		if err := p.webhooks.RecordFailure(ctx, log.ID, attempts, code, body); err != nil {
			return fmt.Errorf("record webhook failure: %w", err)
		}
		metrics.WebhookAttemptsTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("webhook delivery abandoned",
			"webhook_id", log.ID, "event", log.Event, "attempts", attempts, "response_code", code)
		return nil
	}

	delay := p.schedule[attempts]
	nextRetryAt := p.now().Add(delay)
	if err := p.webhooks.RecordRetry(ctx, log.ID, attempts, nextRetryAt, code, body); err != nil {
		return fmt.Errorf("record webhook retry: %w", err)
	}
	metrics.WebhookAttemptsTotal.WithLabelValues("retry").Inc()

	log.Attempts = attempts
	log.NextRetryAt = &nextRetryAt
	due := application.DueWebhook{Log: log, WebhookURL: payload.WebhookURL, WebhookSecret: payload.WebhookSecret}
	if err := p.events.EnqueueDelivery(ctx, due, delay); err != nil {
		// The retry row is already persisted; the scheduler will recover it.
		p.logger.Error("failed to enqueue webhook retry", "webhook_id", log.ID, "error", err)
	}

	p.logger.Info("webhook attempt failed, retry scheduled",
		"webhook_id", log.ID, "event", log.Event, "attempts", attempts,
		"response_code", code, "next_retry_in", delay)
	return nil
}

// attempt POSTs the signed payload once. Network failures are recorded as
// response code 0 with the error text as the body.
func (p *DeliveryProcessor) attempt(ctx context.Context, url, secret string, payload []byte) (int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature.Sign(payload, secret))

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err.Error()
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, string(body)
}
