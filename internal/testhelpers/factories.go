package testhelpers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rivetpay/gateway/internal/domain"
	"github.com/rivetpay/gateway/internal/infrastructure/persistence/postgres"
)

// InsertMerchant seeds a merchant row. A non-empty webhookURL enables
// webhook delivery for the merchant.
func InsertMerchant(t *testing.T, db *postgres.DB, webhookURL string) *domain.Merchant {
	t.Helper()
	ctx := context.Background()

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

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO merchants (id, name, email, api_key, webhook_url, webhook_secret)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.Name, m.Email, m.APIKey, m.WebhookURL, m.WebhookSecret)
	require.NoError(t, err)

	return m
}

// InsertOrder seeds an order for the merchant.
func InsertOrder(t *testing.T, db *postgres.DB, merchantID string, amount int64) *domain.Order {
	t.Helper()
	ctx := context.Background()

	order, err := domain.NewOrder(merchantID, amount, "INR", nil)
	require.NoError(t, err)

	repo := postgres.NewOrderRepository(db)
	require.NoError(t, repo.CreateOrder(ctx, order))
	return order
}

// InsertPayment seeds a payment in the given status.
func InsertPayment(t *testing.T, db *postgres.DB, merchantID, orderID string, amount int64, status domain.PaymentStatus) *domain.Payment {
	t.Helper()
	ctx := context.Background()

	vpa := "buyer@upi"
	payment, err := domain.NewPayment(orderID, merchantID, amount, "INR", domain.MethodUPI, &vpa)
	require.NoError(t, err)
	payment.Status = status

	repo := postgres.NewPaymentRepository(db)
	require.NoError(t, repo.CreatePayment(ctx, payment))
	return payment
}
