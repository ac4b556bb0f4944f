package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/application/services"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/ledger"
	"github.com/rivetpay/gateway/internal/metrics"
	"github.com/rivetpay/gateway/internal/queue"
)

// RefundProcessor moves pending refunds to processed. Before committing it
// re-checks the refundable balance against processed refunds only, guarding
// the window between the request-time check and this write.
type RefundProcessor struct {
	payments application.PaymentStore
	refunds  application.RefundStore
	ledger   *ledger.Ledger
	events   *services.WebhookService
	logger   *slog.Logger

	now func() time.Time
}

func NewRefundProcessor(payments application.PaymentStore, refunds application.RefundStore, ldg *ledger.Ledger, events *services.WebhookService, logger *slog.Logger) *RefundProcessor {
	return &RefundProcessor{
		payments: payments,
		refunds:  refunds,
		ledger:   ldg,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *RefundProcessor) Process(ctx context.Context, job queue.Job) error {
	var payload queue.RefundJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("malformed refund job, discarding", "job_id", job.ID, "error", err)
		return nil
	}

	refund, err := p.refunds.RefundByID(ctx, payload.RefundID)
	if errors.Is(err, application.ErrRefundNotFound) {
		p.logger.Warn("refund job references missing refund, discarding", "refund_id", payload.RefundID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load refund: %w", err)
	}
	if refund.Status != domain.RefundPending {
		return nil
	}

	payment, err := p.payments.PaymentByID(ctx, refund.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if payment.Status != domain.PaymentSuccess {
		// Refunds are only created against successful payments, so this
		// indicates corrupted data rather than a race.
		p.logger.Error("refund against non-successful payment, discarding",
			"refund_id", refund.ID, "payment_id", payment.ID, "payment_status", payment.Status)
		return nil
	}

	available, err := p.ledger.AvailableProcessed(ctx, payment)
	if err != nil {
		return fmt.Errorf("check refundable balance: %w", err)
	}
	if refund.Amount > available {
		p.logger.Error("refund would overdraw payment, leaving pending",
			"refund_id", refund.ID, "payment_id", payment.ID,
			"amount", refund.Amount, "available", available)
		return nil
	}

	processedAt := p.now()
	processed, err := p.refunds.MarkProcessed(ctx, refund.ID, processedAt)
	if err != nil {
		return fmt.Errorf("mark refund processed: %w", err)
	}
	if !processed {
		p.logger.Info("refund already processed, skipping", "refund_id", refund.ID)
		return nil
	}

	metrics.RefundsProcessedTotal.Inc()

	if err := refund.MarkProcessed(processedAt); err != nil {
		return err
	}
	if err := p.events.Emit(ctx, refund.MerchantID, domain.EventRefundProcessed, application.NewRefundView(refund)); err != nil {
		p.logger.Error("refund.processed webhook not emitted", "refund_id", refund.ID, "error", err)
	}

	p.logger.Info("refund processed",
		"refund_id", refund.ID,
		"payment_id", refund.PaymentID,
		"amount", refund.Amount,
	)
	return nil
}
