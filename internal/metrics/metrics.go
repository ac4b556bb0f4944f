// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_payment_settlements_total",
		Help: "Payment settlements by outcome.",
	}, []string{"method", "outcome"})

	RefundsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_refunds_processed_total",
		Help: "Refunds driven to the processed state.",
	})

	WebhookAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_webhook_delivery_attempts_total",
		Help: "Webhook delivery attempts by result.",
	}, []string{"result"})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_jobs_total",
		Help: "Jobs consumed from the dispatcher by type and result.",
	}, []string{"type", "result"})
)
