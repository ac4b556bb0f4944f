// Package rest carries the HTTP wire helpers shared by handlers and
// middleware.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rivetpay/gateway/internal/application"
)

// ErrorResponse is the uniform error body: {"error":{"code","description"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps application errors onto the wire. Anything that is not a
// ServiceError is treated as an opaque internal failure.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	svcErr, ok := application.IsServiceError(err)
	if !ok {
		svcErr = application.NewInternalError(err)
	}
	if svcErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed", "code", svcErr.Code, "error", err)
	}

	WriteJSON(w, svcErr.HTTPStatus, ErrorResponse{
		Error: ErrorDetail{
			Code:        svcErr.Code,
			Description: svcErr.Message,
		},
	})
}
