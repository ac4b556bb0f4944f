package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/ledger"
	"github.com/rivetpay/gateway/internal/queue"
)

// refundIDRetries bounds how many fresh identifiers are tried when an
// insert collides with an existing refund row.
const refundIDRetries = 3

// RefundService accepts refunds against successful payments. The ledger
// counts pending refunds as reserved at request time, so concurrent refunds
// cannot overdraw the payment; the worker re-validates before committing.
type RefundService struct {
	payments   application.PaymentStore
	refunds    application.RefundStore
	ledger     *ledger.Ledger
	dispatcher queue.Dispatcher
	events     *WebhookService
	logger     *slog.Logger
}

func NewRefundService(payments application.PaymentStore, refunds application.RefundStore, ldg *ledger.Ledger, dispatcher queue.Dispatcher, events *WebhookService, logger *slog.Logger) *RefundService {
	return &RefundService{
		payments:   payments,
		refunds:    refunds,
		ledger:     ldg,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger,
	}
}

func (s *RefundService) CreateRefund(ctx context.Context, merchantID, paymentID string, cmd application.CreateRefundCommand) (*domain.Refund, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, application.NewValidationError(validationMessage(err))
	}

	payment, err := s.payments.PaymentByID(ctx, paymentID)
	if errors.Is(err, application.ErrPaymentNotFound) {
		return nil, application.NewNotFoundError("payment")
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if payment.MerchantID != merchantID {
		return nil, application.NewNotFoundError("payment")
	}

	if !payment.Refundable() {
		return nil, application.NewStateConflictError("only successful payments can be refunded")
	}

	amount := cmd.Amount
	if amount == 0 {
		amount = payment.Amount
	}

	available, err := s.ledger.Available(ctx, payment)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if amount > available {
		return nil, application.NewStateConflictError(
			fmt.Sprintf("refund amount exceeds refundable balance of %d", available))
	}

	refund, err := domain.NewRefund(payment.ID, merchantID, amount, cmd.Reason)
	if err != nil {
		return nil, application.NewValidationError(err.Error())
	}

	// Insert under the primary-key constraint; a collision regenerates the
	// identifier and retries the write.
	for attempt := 0; ; attempt++ {
		err = s.refunds.CreateRefund(ctx, refund)
		if err == nil {
			break
		}
		if errors.Is(err, application.ErrDuplicateRefundID) && attempt < refundIDRetries {
			refund.RegenerateID()
			continue
		}
		s.logger.Error("failed to create refund", "payment_id", payment.ID, "error", err)
		return nil, application.NewInternalError(err)
	}

	job, err := queue.NewJob(queue.JobProcessRefund, queue.RefundJob{
		RefundID:   refund.ID,
		MerchantID: merchantID,
	})
	if err == nil {
		err = s.dispatcher.Enqueue(ctx, job)
	}
	if err != nil {
		s.logger.Error("failed to enqueue refund job", "refund_id", refund.ID, "error", err)
		return nil, application.NewInternalError(err)
	}

	if err := s.events.Emit(ctx, merchantID, domain.EventRefundCreated, application.NewRefundView(refund)); err != nil {
		s.logger.Warn("refund.created webhook not emitted", "refund_id", refund.ID, "error", err)
	}

	s.logger.Info("refund created",
		"refund_id", refund.ID,
		"payment_id", payment.ID,
		"merchant_id", merchantID,
		"amount", amount,
	)
	return refund, nil
}

func (s *RefundService) GetRefund(ctx context.Context, merchantID, refundID string) (*domain.Refund, error) {
	refund, err := s.refunds.RefundByID(ctx, refundID)
	if errors.Is(err, application.ErrRefundNotFound) {
		return nil, application.NewNotFoundError("refund")
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if refund.MerchantID != merchantID {
		return nil, application.NewNotFoundError("refund")
	}
	return refund, nil
}
