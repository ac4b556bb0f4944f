package application

import (
	"encoding/json"
	"time"

	"github.com/rivetpay/gateway/internal/domain"
)

// Views are the wire representations shared by API responses and webhook
// payloads, so a merchant sees the same shape in both places.

type OrderView struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Receipt   *string   `json:"receipt,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewOrderView(o *domain.Order) OrderView {
	return OrderView{
		ID:        o.ID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

type PaymentView struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Method           string    `json:"method"`
	VPA              *string   `json:"vpa,omitempty"`
	Status           string    `json:"status"`
	ErrorCode        *string   `json:"error_code,omitempty"`
	ErrorDescription *string   `json:"error_description,omitempty"`
	Captured         bool      `json:"captured"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewPaymentView(p *domain.Payment) PaymentView {
	return PaymentView{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Method:           string(p.Method),
		VPA:              p.VPA,
		Status:           string(p.Status),
		ErrorCode:        p.ErrorCode,
		ErrorDescription: p.ErrorDescription,
		Captured:         p.Captured,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type RefundView struct {
	ID          string     `json:"id"`
	PaymentID   string     `json:"payment_id"`
	Amount      int64      `json:"amount"`
	Reason      *string    `json:"reason,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func NewRefundView(r *domain.Refund) RefundView {
	return RefundView{
		ID:          r.ID,
		PaymentID:   r.PaymentID,
		Amount:      r.Amount,
		Reason:      r.Reason,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		ProcessedAt: r.ProcessedAt,
	}
}

type WebhookLogView struct {
	ID            string          `json:"id"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
	ResponseCode  *int            `json:"response_code,omitempty"`
	ResponseBody  *string         `json:"response_body,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewWebhookLogView(w *domain.WebhookLog) WebhookLogView {
	return WebhookLogView{
		ID:            w.ID,
		Event:         w.Event,
		Payload:       json.RawMessage(w.Payload),
		Status:        string(w.Status),
		Attempts:      w.Attempts,
		NextRetryAt:   w.NextRetryAt,
		LastAttemptAt: w.LastAttemptAt,
		ResponseCode:  w.ResponseCode,
		ResponseBody:  w.ResponseBody,
		CreatedAt:     w.CreatedAt,
	}
}
