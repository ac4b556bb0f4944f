package domain

import (
	"errors"
	"time"
)

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
)

// Refund represents a partial or full reversal of a successful payment.
// Multiple refunds may exist per payment; their combined amount never
// exceeds the payment amount.
type Refund struct {
	ID         string
	PaymentID  string
	MerchantID string
	Amount     int64
	Reason     *string
	Status     RefundStatus
	CreatedAt  time.Time
	ProcessedAt *time.Time
}

func NewRefund(paymentID, merchantID string, amount int64, reason *string) (*Refund, error) {
	if paymentID == "" {
		return nil, errors.New("payment ID is required")
	}
	if merchantID == "" {
		return nil, errors.New("merchant ID is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	return &Refund{
		ID:         NewRefundID(),
		PaymentID:  paymentID,
		MerchantID: merchantID,
		Amount:     amount,
		Reason:     reason,
		Status:     RefundPending,
		CreatedAt:  time.Now(),
	}, nil
}

// RegenerateID mints a fresh identifier after an insert collided with an
// existing row. The insert itself is the uniqueness check.
func (r *Refund) RegenerateID() {
	r.ID = NewRefundID()
}

func (r *Refund) MarkProcessed(at time.Time) error {
	if r.Status != RefundPending {
		return NewInvalidStateError(string(r.Status), string(RefundPending))
	}
	r.Status = RefundProcessed
	r.ProcessedAt = &at
	return nil
}
