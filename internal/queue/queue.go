// Package queue is the boundary between request handling and the worker
// pool: an at-least-once job dispatcher with optional per-job delay and
// redelivery of jobs whose worker crashed before acknowledging.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Job type names, one per worker handler.
const (
	JobProcessPayment = "process-payment"
	JobProcessRefund  = "process-refund"
	JobDeliverWebhook = "deliver-webhook"
)

var ErrClosed = errors.New("queue closed")

// Job is the unit of work exchanged between the API process and workers.
type Job struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewJob wraps a typed payload into a Job envelope.
func NewJob(jobType string, payload any) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: data,
	}, nil
}

// PaymentJob references a pending payment awaiting settlement.
type PaymentJob struct {
	PaymentID  string `json:"paymentId"`
	MerchantID string `json:"merchantId"`
}

// RefundJob references a pending refund awaiting processing.
type RefundJob struct {
	RefundID   string `json:"refundId"`
	MerchantID string `json:"merchantId"`
}

// WebhookJob carries everything the delivery engine needs to attempt one
// notification without further merchant lookups.
type WebhookJob struct {
	WebhookLogID  string          `json:"webhookLogId"`
	MerchantID    string          `json:"merchantId"`
	WebhookURL    string          `json:"webhookUrl"`
	WebhookSecret string          `json:"webhookSecret"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"`
}

type enqueueOptions struct {
	delay time.Duration
}

type EnqueueOption func(*enqueueOptions)

// WithDelay makes the job invisible to consumers until the delay elapses.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) { o.delay = d }
}

func applyOptions(opts []EnqueueOption) enqueueOptions {
	var o enqueueOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dispatcher is the producer side of the queue.
type Dispatcher interface {
	Enqueue(ctx context.Context, job Job, opts ...EnqueueOption) error
}

// Delivery is a received job plus the receipt needed to acknowledge it.
type Delivery struct {
	Job
	receipt string
}

// Consumer is the worker side of the queue. Receive blocks until a job is
// available or ctx is cancelled. An unacknowledged delivery is redelivered
// after the transport's visibility timeout.
type Consumer interface {
	Receive(ctx context.Context) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
}
