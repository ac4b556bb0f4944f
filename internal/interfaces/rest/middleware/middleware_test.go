package middleware_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/idempotency"
	"github.com/rivetpay/gateway/internal/interfaces/rest/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubMerchantStore struct {
	merchant *domain.Merchant
}

func (s *stubMerchantStore) MerchantByID(ctx context.Context, id string) (*domain.Merchant, error) {
	if s.merchant != nil && s.merchant.ID == id {
		return s.merchant, nil
	}
	return nil, application.ErrMerchantNotFound
}

func (s *stubMerchantStore) MerchantByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	if s.merchant != nil && s.merchant.APIKey == apiKey {
		return s.merchant, nil
	}
	return nil, application.ErrMerchantNotFound
}

type memoryIdempotencyStore struct {
	records map[string]*idempotency.Record
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{records: make(map[string]*idempotency.Record)}
}

func (s *memoryIdempotencyStore) key(merchantID, key string) string {
	return merchantID + "/" + key
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, merchantID, key string) (*idempotency.Record, error) {
	rec, ok := s.records[s.key(merchantID, key)]
	if !ok {
		return nil, idempotency.ErrNoRecord
	}
	return rec, nil
}

func (s *memoryIdempotencyStore) Put(ctx context.Context, merchantID, key string, response []byte, expiresAt time.Time) error {
	k := s.key(merchantID, key)
	if _, exists := s.records[k]; exists {
		return nil
	}
	s.records[k] = &idempotency.Record{Key: key, MerchantID: merchantID, Response: response, ExpiresAt: expiresAt}
	return nil
}

func (s *memoryIdempotencyStore) Delete(ctx context.Context, merchantID, key string) error {
	delete(s.records, s.key(merchantID, key))
	return nil
}

func testMerchant() *domain.Merchant {
	return &domain.Merchant{ID: "merchant_1", Name: "M", Email: "m@example.com", APIKey: "key_abc"}
}

func TestAuth_ResolvesMerchant(t *testing.T) {
	merchant := testMerchant()
	var seen *domain.Merchant
	handler := middleware.Auth(&stubMerchantStore{merchant: merchant}, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.MerchantFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/v1/webhooks", nil)
	req.Header.Set("Authorization", "Bearer key_abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, merchant.ID, seen.ID)
}

func TestAuth_RejectsMissingOrInvalidKey(t *testing.T) {
	handler := middleware.Auth(&stubMerchantStore{merchant: testMerchant()}, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/v1/webhooks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")

	req = httptest.NewRequest(http.MethodGet, "/v1/webhooks", nil)
	req.Header.Set("Authorization", "Bearer key_wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdempotency_ReplaysByteIdenticalResponse(t *testing.T) {
	merchant := testMerchant()
	cache := idempotency.NewCache(newMemoryIdempotencyStore(), discardLogger())

	var calls int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":"pay_%d"}`, calls)
	})

	handler := middleware.Auth(&stubMerchantStore{merchant: merchant}, discardLogger())(
		middleware.Idempotency(cache)(inner))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+merchant.APIKey)
		req.Header.Set(middleware.IdempotencyHeader, "k1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusCreated, first.Code)

	second := do()
	assert.Equal(t, http.StatusOK, second.Code, "replays return 200")
	assert.Equal(t, first.Body.String(), second.Body.String(), "byte-identical replay")
	assert.Equal(t, 1, calls, "the handler ran once")
}

func TestIdempotency_KeylessRequestsPassThrough(t *testing.T) {
	merchant := testMerchant()
	cache := idempotency.NewCache(newMemoryIdempotencyStore(), discardLogger())

	var calls int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	handler := middleware.Auth(&stubMerchantStore{merchant: merchant}, discardLogger())(
		middleware.Idempotency(cache)(inner))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+merchant.APIKey)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotency_ErrorResponsesNotCached(t *testing.T) {
	merchant := testMerchant()
	cache := idempotency.NewCache(newMemoryIdempotencyStore(), discardLogger())

	var calls int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	handler := middleware.Auth(&stubMerchantStore{merchant: merchant}, discardLogger())(
		middleware.Idempotency(cache)(inner))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+merchant.APIKey)
		req.Header.Set(middleware.IdempotencyHeader, "k1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusInternalServerError, do().Code)
	assert.Equal(t, http.StatusCreated, do().Code, "a failed attempt does not poison the key")
	assert.Equal(t, 2, calls)
}
