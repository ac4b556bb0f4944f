package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/application/services"
	"github.com/rivetpay/gateway/internal/config"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/metrics"
	"github.com/rivetpay/gateway/internal/queue"
)

// SettlementProcessor settles pending payments. The outcome is simulated:
// forced in test mode, drawn against per-method success rates otherwise.
// The settle write is guarded on status, so a redelivered job observes the
// payment already terminal and does nothing.
type SettlementProcessor struct {
	payments application.PaymentStore
	events   *services.WebhookService
	cfg      config.SettlementConfig
	logger   *slog.Logger

	draw  func() float64
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewSettlementProcessor(payments application.PaymentStore, events *services.WebhookService, cfg config.SettlementConfig, logger *slog.Logger) *SettlementProcessor {
	return &SettlementProcessor{
		payments: payments,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		draw:     rand.Float64,
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

func (p *SettlementProcessor) Process(ctx context.Context, job queue.Job) error {
	var payload queue.PaymentJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("malformed payment job, discarding", "job_id", job.ID, "error", err)
		return nil
	}

	payment, err := p.payments.PaymentByID(ctx, payload.PaymentID)
	if errors.Is(err, application.ErrPaymentNotFound) {
		p.logger.Warn("payment job references missing payment, discarding", "payment_id", payload.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if payment.IsTerminal() {
		return nil
	}

	if err := p.sleep(ctx, p.settlementDelay()); err != nil {
		return err
	}

	success := p.decide(payment.Method)

	var errorCode, errorDescription *string
	status := domain.PaymentSuccess
	if !success {
		status = domain.PaymentFailed
		code, desc := failureDetail(payment.Method)
		errorCode, errorDescription = &code, &desc
	}

	settled, err := p.payments.SettlePayment(ctx, payment.ID, status, errorCode, errorDescription)
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	if !settled {
		// Another worker got there first; the webhook was already emitted.
		p.logger.Info("payment already settled, skipping", "payment_id", payment.ID)
		return nil
	}

	metrics.SettlementsTotal.WithLabelValues(string(payment.Method), string(status)).Inc()

	event := domain.EventPaymentSuccess
	if success {
		if err := payment.Succeed(); err != nil {
			return err
		}
	} else {
		event = domain.EventPaymentFailed
		if err := payment.Fail(*errorCode, *errorDescription); err != nil {
			return err
		}
	}

	if err := p.events.Emit(ctx, payment.MerchantID, event, application.NewPaymentView(payment)); err != nil {
		p.logger.Error("settlement webhook not emitted", "payment_id", payment.ID, "event", event, "error", err)
	}

	p.logger.Info("payment settled",
		"payment_id", payment.ID,
		"status", status,
		"method", payment.Method,
	)
	return nil
}

func (p *SettlementProcessor) settlementDelay() time.Duration {
	if p.cfg.Delay > 0 {
		return p.cfg.Delay
	}
	if p.cfg.TestMode {
		return time.Second
	}
	// Real acquirers answer in seconds, not milliseconds.
	return 5*time.Second + time.Duration(p.draw()*float64(5*time.Second))
}

func (p *SettlementProcessor) decide(method domain.PaymentMethod) bool {
	if p.cfg.TestMode {
		return p.cfg.TestSuccess
	}
	rate := p.cfg.UPISuccessRate
	if method == domain.MethodCard {
		rate = p.cfg.CardSuccessRate
	}
	return p.draw() < rate
}

// failureDetail returns the fixed failure code with a method-specific
// description.
func failureDetail(method domain.PaymentMethod) (code, description string) {
	if method == domain.MethodCard {
		return "PAYMENT_FAILED", "Card payment failed"
	}
	return "PAYMENT_FAILED", "UPI payment failed"
}
