// Package handlers exposes the merchant-facing HTTP API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/application/services"
	"github.com/rivetpay/gateway/internal/interfaces/rest"
)

type Handlers struct {
	orderService   *services.OrderService
	paymentService *services.PaymentService
	refundService  *services.RefundService
	webhookService *services.WebhookService
	logger         *slog.Logger
}

func NewHandlers(
	orderService *services.OrderService,
	paymentService *services.PaymentService,
	refundService *services.RefundService,
	webhookService *services.WebhookService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		orderService:   orderService,
		paymentService: paymentService,
		refundService:  refundService,
		webhookService: webhookService,
		logger:         logger,
	}
}

// Register wires the authenticated API routes onto the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/orders", h.CreateOrder)
	mux.HandleFunc("GET /v1/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /v1/payments", h.CreatePayment)
	mux.HandleFunc("GET /v1/payments/{id}", h.GetPayment)
	mux.HandleFunc("POST /v1/payments/{id}/capture", h.CapturePayment)
	mux.HandleFunc("POST /v1/payments/{id}/refunds", h.CreateRefund)
	mux.HandleFunc("GET /v1/refunds/{id}", h.GetRefund)
	mux.HandleFunc("GET /v1/webhooks", h.ListWebhooks)
	mux.HandleFunc("POST /v1/webhooks/{id}/retry", h.RetryWebhook)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return false
	}
	return true
}
