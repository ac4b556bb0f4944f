package handlers

import (
	"net/http"
	"strconv"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/interfaces/rest"
	"github.com/rivetpay/gateway/internal/interfaces/rest/middleware"
)

type webhookListResponse struct {
	Items []application.WebhookLogView `json:"items"`
	Total int                          `json:"total"`
}

func (h *Handlers) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, total, err := h.webhookService.List(r.Context(), merchant.ID, limit, offset)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	items := make([]application.WebhookLogView, 0, len(logs))
	for _, log := range logs {
		items = append(items, application.NewWebhookLogView(log))
	}

	rest.WriteJSON(w, http.StatusOK, webhookListResponse{Items: items, Total: total})
}

func (h *Handlers) RetryWebhook(w http.ResponseWriter, r *http.Request) {
	merchant := middleware.MerchantFromContext(r.Context())

	log, err := h.webhookService.Retry(r.Context(), merchant.ID, r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, application.NewWebhookLogView(log))
}
