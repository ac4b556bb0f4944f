// Package domain encodes the gateway's entities and their lifecycles.
package domain

import (
	"errors"
	"time"
)

// PaymentMethod is the instrument used to pay for an order.
type PaymentMethod string

const (
	MethodUPI  PaymentMethod = "upi"
	MethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodUPI || m == MethodCard
}

// PaymentStatus represents the current state of a payment in its lifecycle.
// A payment transitions from pending to exactly one of success or failed.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID         string
	OrderID    string
	MerchantID string
	Amount     int64
	Currency   string
	Method     PaymentMethod
	VPA        *string
	Status     PaymentStatus

	ErrorCode        *string
	ErrorDescription *string
	Captured         bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPayment(orderID, merchantID string, amount int64, currency string, method PaymentMethod, vpa *string) (*Payment, error) {
	if orderID == "" {
		return nil, errors.New("order ID is required")
	}
	if merchantID == "" {
		return nil, errors.New("merchant ID is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if !method.Valid() {
		return nil, errors.New("invalid payment method")
	}

	now := time.Now()
	return &Payment{
		ID:         NewPaymentID(),
		OrderID:    orderID,
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   currency,
		Method:     method,
		VPA:        vpa,
		Status:     PaymentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Succeed transitions the payment to its successful terminal state.
func (p *Payment) Succeed() error {
	if err := p.requireStatus(PaymentPending); err != nil {
		return err
	}
	p.Status = PaymentSuccess
	p.UpdatedAt = time.Now()
	return nil
}

// Fail transitions the payment to its failed terminal state and records
// the method-specific error detail.
func (p *Payment) Fail(code, description string) error {
	if err := p.requireStatus(PaymentPending); err != nil {
		return err
	}
	p.Status = PaymentFailed
	p.ErrorCode = &code
	p.ErrorDescription = &description
	p.UpdatedAt = time.Now()
	return nil
}

// MarkCaptured flags a successful payment as captured. Capture is only
// meaningful once the payment has settled.
func (p *Payment) MarkCaptured() error {
	if err := p.requireStatus(PaymentSuccess); err != nil {
		return err
	}
	p.Captured = true
	p.UpdatedAt = time.Now()
	return nil
}

// Refundable reports whether refunds may be created against this payment.
func (p *Payment) Refundable() bool {
	return p.Status == PaymentSuccess
}

func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentFailed
}

func (p *Payment) requireStatus(want PaymentStatus) error {
	if p.Status != want {
		return NewInvalidStateError(string(p.Status), string(want))
	}
	return nil
}
