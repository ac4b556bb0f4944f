package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
)

type MerchantRepository struct {
	db *DB
}

func NewMerchantRepository(db *DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// MerchantByID retrieves a merchant. The delivery engine treats this as a
// read-only webhook-config lookup.
func (r *MerchantRepository) MerchantByID(ctx context.Context, id string) (*domain.Merchant, error) {
	query := `
		SELECT id, name, email, api_key, webhook_url, webhook_secret, created_at
		FROM merchants WHERE id = $1
	`

	return scanMerchant(r.db.Pool.QueryRow(ctx, query, id))
}

// MerchantByAPIKey resolves the authenticated merchant for a request.
func (r *MerchantRepository) MerchantByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	query := `
		SELECT id, name, email, api_key, webhook_url, webhook_secret, created_at
		FROM merchants WHERE api_key = $1
	`

	return scanMerchant(r.db.Pool.QueryRow(ctx, query, apiKey))
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	var m domain.Merchant
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.APIKey, &m.WebhookURL, &m.WebhookSecret, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to scan merchant: %w", err)
	}
	return &m, nil
}
