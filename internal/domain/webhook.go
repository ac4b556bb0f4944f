package domain

import "time"

// Webhook event names emitted by the gateway.
const (
	EventPaymentCreated  = "payment.created"
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundCreated   = "refund.created"
	EventRefundProcessed = "refund.processed"
)

type WebhookStatus string

const (
	WebhookPending WebhookStatus = "pending"
	WebhookSuccess WebhookStatus = "success"
	WebhookFailed  WebhookStatus = "failed"
)

// MaxDeliveryAttempts caps automatic webhook retries. Once reached, the
// log is terminal at failed and only a manual retry can revive it.
const MaxDeliveryAttempts = 5

// WebhookLog records a single outbound notification and its delivery
// history. Payload is an immutable snapshot of the signed envelope taken
// when the domain event fired.
type WebhookLog struct {
	ID         string
	MerchantID string
	Event      string
	Payload    []byte
	Status     WebhookStatus
	Attempts   int

	NextRetryAt   *time.Time
	LastAttemptAt *time.Time
	ResponseCode  *int
	ResponseBody  *string

	CreatedAt time.Time
}

func NewWebhookLog(merchantID, event string, payload []byte) *WebhookLog {
	return &WebhookLog{
		ID:         NewWebhookLogID(),
		MerchantID: merchantID,
		Event:      event,
		Payload:    payload,
		Status:     WebhookPending,
		CreatedAt:  time.Now(),
	}
}

// ResetForManualRetry rewinds the log so a user-triggered retry starts the
// delivery cycle over, regardless of a prior terminal failed status.
func (w *WebhookLog) ResetForManualRetry(now time.Time) {
	w.Status = WebhookPending
	w.Attempts = 0
	w.NextRetryAt = &now
}
