package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/queue"
)

var vpaPattern = regexp.MustCompile(`^[\w.\-]+@\w+$`)

// PaymentService creates payments against orders and hands settlement to
// the worker pool. Payments are accepted as pending; the settlement worker
// decides success or failure later.
type PaymentService struct {
	orders     application.OrderStore
	payments   application.PaymentStore
	dispatcher queue.Dispatcher
	events     *WebhookService
	logger     *slog.Logger
}

func NewPaymentService(orders application.OrderStore, payments application.PaymentStore, dispatcher queue.Dispatcher, events *WebhookService, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		orders:     orders,
		payments:   payments,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, merchantID string, cmd application.CreatePaymentCommand) (*domain.Payment, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, application.NewValidationError(validationMessage(err))
	}

	method := domain.PaymentMethod(cmd.Method)
	var vpa *string
	switch method {
	case domain.MethodUPI:
		if cmd.VPA == nil || !vpaPattern.MatchString(*cmd.VPA) {
			return nil, application.NewValidationError("a valid vpa is required for upi payments")
		}
		vpa = cmd.VPA
	case domain.MethodCard:
		if cmd.Card == nil {
			return nil, application.NewValidationError("card details are required for card payments")
		}
		// Card details were validated by the command tags and are dropped
		// here; they never reach persistence or logs.
	}

	order, err := s.orders.OrderByID(ctx, cmd.OrderID)
	if errors.Is(err, application.ErrOrderNotFound) {
		return nil, application.NewNotFoundError("order")
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if order.MerchantID != merchantID {
		return nil, application.NewNotFoundError("order")
	}

	payment, err := domain.NewPayment(order.ID, merchantID, order.Amount, order.Currency, method, vpa)
	if err != nil {
		return nil, application.NewValidationError(err.Error())
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		s.logger.Error("failed to create payment", "order_id", order.ID, "error", err)
		return nil, application.NewInternalError(err)
	}

	job, err := queue.NewJob(queue.JobProcessPayment, queue.PaymentJob{
		PaymentID:  payment.ID,
		MerchantID: merchantID,
	})
	if err == nil {
		err = s.dispatcher.Enqueue(ctx, job)
	}
	if err != nil {
		s.logger.Error("failed to enqueue settlement job", "payment_id", payment.ID, "error", err)
		return nil, application.NewInternalError(err)
	}

	if err := s.events.Emit(ctx, merchantID, domain.EventPaymentCreated, application.NewPaymentView(payment)); err != nil {
		s.logger.Warn("payment.created webhook not emitted", "payment_id", payment.ID, "error", err)
	}

	s.logger.Info("payment created",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"merchant_id", merchantID,
		"method", method,
	)
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
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
	return payment, nil
}

// CapturePayment flags a settled payment as captured. Capturing an already
// captured payment is a no-op returning the current state.
func (s *PaymentService) CapturePayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, merchantID, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Captured {
		return payment, nil
	}
	if payment.Status != domain.PaymentSuccess {
		return nil, application.NewStateConflictError("only successful payments can be captured")
	}

	ok, err := s.payments.MarkCaptured(ctx, payment.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if !ok {
		return nil, application.NewStateConflictError("only successful payments can be captured")
	}

	payment.Captured = true
	s.logger.Info("payment captured", "payment_id", payment.ID, "merchant_id", merchantID)
	return payment, nil
}
