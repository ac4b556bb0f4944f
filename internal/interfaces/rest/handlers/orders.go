package handlers

import (
	"net/http"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/interfaces/rest"
	"github.com/rivetpay/gateway/internal/interfaces/rest/middleware"
)

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	var cmd application.CreateOrderCommand
	if !h.decode(w, r, &cmd) {
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), merchant.ID, cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, application.NewOrderView(order))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	order, err := h.orderService.GetOrder(r.Context(), merchant.ID, r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, application.NewOrderView(order))
}
