package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/interfaces/rest"
)

type contextKey string

const merchantKey contextKey = "merchant"

// MerchantFromContext returns the merchant resolved by Auth, or nil on
// routes that skip authentication.
func MerchantFromContext(ctx context.Context) *domain.Merchant {
	m, _ := ctx.Value(merchantKey).(*domain.Merchant)
	return m
}

// Auth resolves the merchant from the Authorization bearer API key and
// stores it on the request context.
func Auth(merchants application.MerchantStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, "missing api key")
				return
			}

			merchant, err := merchants.MerchantByAPIKey(r.Context(), apiKey)
			if errors.Is(err, application.ErrMerchantNotFound) {
				writeUnauthorized(w, "invalid api key")
				return
			}
			if err != nil {
				rest.WriteError(w, application.NewInternalError(err), logger)
				return
			}

			ctx := context.WithValue(r.Context(), merchantKey, merchant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	rest.WriteJSON(w, http.StatusUnauthorized, rest.ErrorResponse{
		Error: rest.ErrorDetail{
			Code:        "UNAUTHORIZED",
			Description: description,
		},
	})
}
