package handlers

import (
	"net/http"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/interfaces/rest"
	"github.com/rivetpay/gateway/internal/interfaces/rest/middleware"
)

func (h *Handlers) CreateRefund(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	var cmd application.CreateRefundCommand
	if !h.decode(w, r, &cmd) {
		return
	}

	refund, err := h.refundService.CreateRefund(r.Context(), merchant.ID, r.PathValue("id"), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, application.NewRefundView(refund))
}

func (h *Handlers) GetRefund(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	refund, err := h.refundService.GetRefund(r.Context(), merchant.ID, r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, application.NewRefundView(refund))
}
