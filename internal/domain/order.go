package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
)

// Order is created by a merchant before a payment is attempted against it.
// Orders are immutable once written.
type Order struct {
	ID         string
	MerchantID string
	Amount     int64
	Currency   string
	Receipt    *string
	Status     OrderStatus
	CreatedAt  time.Time
}

func NewOrder(merchantID string, amount int64, currency string, receipt *string) (*Order, error) {
	if merchantID == "" {
		return nil, errors.New("merchant ID is required")
	}
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	return &Order{
		ID:         NewOrderID(),
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   currency,
		Receipt:    receipt,
		Status:     OrderCreated,
		CreatedAt:  time.Now(),
	}, nil
}
