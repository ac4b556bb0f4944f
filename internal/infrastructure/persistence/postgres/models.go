package postgres

import (
	"time"

	"github.com/rivetpay/gateway/internal/domain"
)

// Row models mirror the table shapes; mapping to and from domain entities
// keeps scanning code in one place.

type PaymentModel struct {
	ID               string
	OrderID          string
	MerchantID       string
	Amount           int64
	Currency         string
	Method           string
	VPA              *string
	Status           string
	ErrorCode        *string
	ErrorDescription *string
	Captured         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (m PaymentModel) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:               m.ID,
		OrderID:          m.OrderID,
		MerchantID:       m.MerchantID,
		Amount:           m.Amount,
		Currency:         m.Currency,
		Method:           domain.PaymentMethod(m.Method),
		VPA:              m.VPA,
		Status:           domain.PaymentStatus(m.Status),
		ErrorCode:        m.ErrorCode,
		ErrorDescription: m.ErrorDescription,
		Captured:         m.Captured,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type RefundModel struct {
	ID          string
	PaymentID   string
	MerchantID  string
	Amount      int64
	Reason      *string
	Status      string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (m RefundModel) toDomain() *domain.Refund {
	return &domain.Refund{
		ID:          m.ID,
		PaymentID:   m.PaymentID,
		MerchantID:  m.MerchantID,
		Amount:      m.Amount,
		Reason:      m.Reason,
		Status:      domain.RefundStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

type WebhookLogModel struct {
	ID            string
	MerchantID    string
	Event         string
	Payload       []byte
	Status        string
	Attempts      int
	NextRetryAt   *time.Time
	LastAttemptAt *time.Time
	ResponseCode  *int
	ResponseBody  *string
	CreatedAt     time.Time
}

func (m WebhookLogModel) toDomain() *domain.WebhookLog {
	return &domain.WebhookLog{
		ID:            m.ID,
		MerchantID:    m.MerchantID,
		Event:         m.Event,
		Payload:       m.Payload,
		Status:        domain.WebhookStatus(m.Status),
		Attempts:      m.Attempts,
		NextRetryAt:   m.NextRetryAt,
		LastAttemptAt: m.LastAttemptAt,
		ResponseCode:  m.ResponseCode,
		ResponseBody:  m.ResponseBody,
		CreatedAt:     m.CreatedAt,
	}
}
