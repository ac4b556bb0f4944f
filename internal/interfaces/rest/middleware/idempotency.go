package middleware

import (
	"bytes"
	"net/http"

	"github.com/rivetpay/gateway/internal/idempotency"
)

// IdempotencyHeader carries the client-supplied de-duplication key.
const IdempotencyHeader = "Idempotency-Key"

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the cached response for a repeated key and caches
// successful responses for fresh keys. Requests without a key pass through
// untouched. Replays return 200 with the original body, byte for byte.
func Idempotency(cache *idempotency.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			merchant := MerchantFromContext(r.Context())
			if key == "" || merchant == nil {
				next.ServeHTTP(w, r)
				return
			}

			if cached := cache.Lookup(r.Context(), merchant.ID, key); cached != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= 200 && rec.status < 300 {
				cache.Store(r.Context(), merchant.ID, key, rec.body.Bytes())
			}
		})
	}
}
