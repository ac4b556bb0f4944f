package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rivetpay/gateway/internal/idempotency"
)

type IdempotencyRepository struct {
	db *DB
}

func NewIdempotencyRepository(db *DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Get returns the record for (key, merchant), expired or not. The cache
// layer decides whether an expired record is purged.
func (r *IdempotencyRepository) Get(ctx context.Context, merchantID, key string) (*idempotency.Record, error) {
	query := `
		SELECT key, merchant_id, response, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND merchant_id = $2
	`

	var rec idempotency.Record
	err := r.db.Pool.QueryRow(ctx, query, key, merchantID).Scan(
		&rec.Key, &rec.MerchantID, &rec.Response, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, idempotency.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	return &rec, nil
}

// Put inserts with first-writer-wins semantics: a concurrent duplicate
// write is a silent no-op, so two racing requests with the same fresh key
// can never populate divergent cached responses.
func (r *IdempotencyRepository) Put(ctx context.Context, merchantID, key string, response []byte, expiresAt time.Time) error {
	query := `
		INSERT INTO idempotency_keys (key, merchant_id, response, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key, merchant_id) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query, key, merchantID, response, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return nil
}

// Delete removes an expired record so the request proceeds as fresh.
func (r *IdempotencyRepository) Delete(ctx context.Context, merchantID, key string) error {
	query := `DELETE FROM idempotency_keys WHERE key = $1 AND merchant_id = $2`

	_, err := r.db.Pool.Exec(ctx, query, key, merchantID)
	if err != nil {
		return fmt.Errorf("failed to delete idempotency key: %w", err)
	}

	return nil
}
