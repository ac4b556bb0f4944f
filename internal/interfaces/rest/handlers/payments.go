package handlers

import (
	"net/http"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/interfaces/rest"
	"github.com/rivetpay/gateway/internal/interfaces/rest/middleware"
)

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	var cmd application.CreatePaymentCommand
	if !h.decode(w, r, &cmd) {
		return
	}

	payment, err := h.paymentService.CreatePayment(r.Context(), merchant.ID, cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, application.NewPaymentView(payment))
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	payment, err := h.paymentService.GetPayment(r.Context(), merchant.ID, r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, application.NewPaymentView(payment))
}

func (h *Handlers) CapturePayment(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	payment, err := h.paymentService.CapturePayment(r.Context(), merchant.ID, r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, application.NewPaymentView(payment))
}
