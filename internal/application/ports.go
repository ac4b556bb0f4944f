// Package application defines the service layer: ports over persistence
// and dispatch, the error taxonomy, and request commands.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/rivetpay/gateway/internal/domain"
)

// Store sentinels shared by every persistence implementation.
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrRefundNotFound     = errors.New("refund not found")
	ErrWebhookLogNotFound = errors.New("webhook log not found")
	ErrMerchantNotFound   = errors.New("merchant not found")
	ErrDuplicateRefundID  = errors.New("refund id already exists")
)

type OrderStore interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	OrderByID(ctx context.Context, id string) (*domain.Order, error)
}

// PaymentStore is the port for payment persistence. SettlePayment and
// MarkCaptured are guarded transitions: the returned flag reports whether
// this caller performed the write, so job replays detect "already handled".
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	PaymentByID(ctx context.Context, id string) (*domain.Payment, error)
	SettlePayment(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) (bool, error)
	MarkCaptured(ctx context.Context, id string) (bool, error)
}

type RefundStore interface {
	CreateRefund(ctx context.Context, r *domain.Refund) error
	RefundByID(ctx context.Context, id string) (*domain.Refund, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error)
	SumRefunds(ctx context.Context, paymentID string, statuses ...domain.RefundStatus) (int64, error)
}

// DueWebhook pairs a pending log with its merchant's delivery endpoint.
type DueWebhook struct {
	Log           *domain.WebhookLog
	WebhookURL    string
	WebhookSecret string
}

type WebhookStore interface {
	CreateWebhookLog(ctx context.Context, log *domain.WebhookLog) error
	WebhookLogByID(ctx context.Context, id string) (*domain.WebhookLog, error)
	RecordSuccess(ctx context.Context, id string, attempts, responseCode int, responseBody string) error
	RecordRetry(ctx context.Context, id string, attempts int, nextRetryAt time.Time, responseCode int, responseBody string) error
	RecordFailure(ctx context.Context, id string, attempts, responseCode int, responseBody string) error
	ResetForRetry(ctx context.Context, id string) error
	DueWebhooks(ctx context.Context, now time.Time, limit int) ([]DueWebhook, error)
	ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]*domain.WebhookLog, int, error)
}

type MerchantStore interface {
	MerchantByID(ctx context.Context, id string) (*domain.Merchant, error)
	MerchantByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
}
