package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderStore) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, application.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*domain.Payment)}
}

func (f *fakePaymentStore) add(p *domain.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.payments[p.ID] = &cp
}

func (f *fakePaymentStore) get(id string) *domain.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.payments[id]
	return &cp
}

func (f *fakePaymentStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	f.add(p)
	return nil
}

func (f *fakePaymentStore) PaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, application.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) SettlePayment(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status = status
	p.ErrorCode = errorCode
	p.ErrorDescription = errorDescription
	p.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakePaymentStore) MarkCaptured(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != domain.PaymentSuccess {
		return false, nil
	}
	p.Captured = true
	return true, nil
}

type fakeRefundStore struct {
	mu      sync.Mutex
	refunds map[string]*domain.Refund
}

func newFakeRefundStore() *fakeRefundStore {
	return &fakeRefundStore{refunds: make(map[string]*domain.Refund)}
}

func (f *fakeRefundStore) add(r *domain.Refund) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.refunds[r.ID] = &cp
}

func (f *fakeRefundStore) get(id string) *domain.Refund {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.refunds[id]
	return &cp
}

func (f *fakeRefundStore) CreateRefund(ctx context.Context, r *domain.Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.refunds[r.ID]; exists {
		return application.ErrDuplicateRefundID
	}
	cp := *r
	f.refunds[r.ID] = &cp
	return nil
}

func (f *fakeRefundStore) RefundByID(ctx context.Context, id string) (*domain.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return nil, application.ErrRefundNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRefundStore) MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok || r.Status != domain.RefundPending {
		return false, nil
	}
	r.Status = domain.RefundProcessed
	r.ProcessedAt = &at
	return true, nil
}

func (f *fakeRefundStore) SumRefunds(ctx context.Context, paymentID string, statuses ...domain.RefundStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, r := range f.refunds {
		if r.PaymentID != paymentID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				total += r.Amount
				break
			}
		}
	}
	return total, nil
}

type fakeWebhookStore struct {
	mu   sync.Mutex
	logs map[string]*domain.WebhookLog
	urls map[string]string // merchant id -> webhook url, for DueWebhooks
	secs map[string]string
}

func newFakeWebhookStore() *fakeWebhookStore {
	return &fakeWebhookStore{
		logs: make(map[string]*domain.WebhookLog),
		urls: make(map[string]string),
		secs: make(map[string]string),
	}
}

func (f *fakeWebhookStore) registerMerchant(m *domain.Merchant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.WebhookURL != nil {
		f.urls[m.ID] = *m.WebhookURL
	}
	if m.WebhookSecret != nil {
		f.secs[m.ID] = *m.WebhookSecret
	}
}

func (f *fakeWebhookStore) add(log *domain.WebhookLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *log
	f.logs[log.ID] = &cp
}

func (f *fakeWebhookStore) get(id string) *domain.WebhookLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.logs[id]
	return &cp
}

func (f *fakeWebhookStore) byEvent(event string) []*domain.WebhookLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.WebhookLog
	for _, log := range f.logs {
		if log.Event == event {
			cp := *log
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeWebhookStore) CreateWebhookLog(ctx context.Context, log *domain.WebhookLog) error {
	f.add(log)
	return nil
}

func (f *fakeWebhookStore) WebhookLogByID(ctx context.Context, id string) (*domain.WebhookLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.logs[id]
	if !ok {
		return nil, application.ErrWebhookLogNotFound
	}
	cp := *log
	return &cp, nil
}

func (f *fakeWebhookStore) RecordSuccess(ctx context.Context, id string, attempts, responseCode int, responseBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log := f.logs[id]
	if log.Status != domain.WebhookPending {
		return nil
	}
	now := time.Now()
	log.Status = domain.WebhookSuccess
	log.Attempts = attempts
	log.NextRetryAt = nil
	log.LastAttemptAt = &now
	log.ResponseCode = &responseCode
	log.ResponseBody = &responseBody
	return nil
}

func (f *fakeWebhookStore) RecordRetry(ctx context.Context, id string, attempts int, nextRetryAt time.Time, responseCode int, responseBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log := f.logs[id]
	if log.Status != domain.WebhookPending {
		return nil
	}
	now := time.Now()
	log.Status = domain.WebhookPending
	log.Attempts = attempts
	log.NextRetryAt = &nextRetryAt
	log.LastAttemptAt = &now
	log.ResponseCode = &responseCode
	log.ResponseBody = &responseBody
	return nil
}

func (f *fakeWebhookStore) RecordFailure(ctx context.Context, id string, attempts, responseCode int, responseBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log := f.logs[id]
	if log.Status != domain.WebhookPending {
		return nil
	}
	now := time.Now()
	log.Status = domain.WebhookFailed
	log.Attempts = attempts
	log.NextRetryAt = nil
	log.LastAttemptAt = &now
	log.ResponseCode = &responseCode
	log.ResponseBody = &responseBody
	return nil
}

func (f *fakeWebhookStore) ResetForRetry(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log, ok := f.logs[id]
	if !ok {
		return application.ErrWebhookLogNotFound
	}
	now := time.Now()
	log.Status = domain.WebhookPending
	log.Attempts = 0
	log.NextRetryAt = &now
	return nil
}

func (f *fakeWebhookStore) DueWebhooks(ctx context.Context, now time.Time, limit int) ([]application.DueWebhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []application.DueWebhook
	for _, log := range f.logs {
		if len(due) >= limit {
			break
		}
		if log.Status != domain.WebhookPending || log.Attempts >= domain.MaxDeliveryAttempts {
			continue
		}
		if log.NextRetryAt == nil || log.NextRetryAt.After(now) {
			continue
		}
		url, ok := f.urls[log.MerchantID]
		if !ok {
			continue
		}
		cp := *log
		due = append(due, application.DueWebhook{Log: &cp, WebhookURL: url, WebhookSecret: f.secs[log.MerchantID]})
	}
	return due, nil
}

func (f *fakeWebhookStore) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]*domain.WebhookLog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.WebhookLog
	for _, log := range f.logs {
		if log.MerchantID == merchantID {
			cp := *log
			all = append(all, &cp)
		}
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

type fakeMerchantStore struct {
	mu        sync.Mutex
	merchants map[string]*domain.Merchant
}

func newFakeMerchantStore() *fakeMerchantStore {
	return &fakeMerchantStore{merchants: make(map[string]*domain.Merchant)}
}

func (f *fakeMerchantStore) add(webhookURL string) *domain.Merchant {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "merchant_" + uuid.NewString()
	m := &domain.Merchant{
		ID:     id,
		Name:   "Test Merchant",
		Email:  id + "@example.com",
		APIKey: "key_" + uuid.NewString(),
	}
	if webhookURL != "" {
		secret := "whsec_" + uuid.NewString()
		m.WebhookURL = &webhookURL
		m.WebhookSecret = &secret
	}
	f.merchants[m.ID] = m
	return m
}

func (f *fakeMerchantStore) MerchantByID(ctx context.Context, id string) (*domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.merchants[id]
	if !ok {
		return nil, application.ErrMerchantNotFound
	}
	return m, nil
}

func (f *fakeMerchantStore) MerchantByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.merchants {
		if m.APIKey == apiKey {
			return m, nil
		}
	}
	return nil, application.ErrMerchantNotFound
}
