package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
)

type WebhookRepository struct {
	db *DB
}

func NewWebhookRepository(db *DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) CreateWebhookLog(ctx context.Context, log *domain.WebhookLog) error {
	query := `
		INSERT INTO webhook_logs (id, merchant_id, event, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		log.ID,
		log.MerchantID,
		log.Event,
		log.Payload,
		string(log.Status),
		log.Attempts,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}

	return nil
}

// WebhookLogByID retrieves a log. Returns ErrWebhookLogNotFound if absent.
func (r *WebhookRepository) WebhookLogByID(ctx context.Context, id string) (*domain.WebhookLog, error) {
	query := `
		SELECT id, merchant_id, event, payload, status, attempts,
		       next_retry_at, last_attempt_at, response_code, response_body, created_at
		FROM webhook_logs WHERE id = $1
	`

	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanWebhookLog(row)
}

// RecordSuccess marks a delivery attempt that got a 2xx response. The
// status guard keeps a late duplicate delivery from touching a log another
// worker already resolved.
func (r *WebhookRepository) RecordSuccess(ctx context.Context, id string, attempts, responseCode int, responseBody string) error {
	query := `
		UPDATE webhook_logs
		SET status = 'success', attempts = $1, last_attempt_at = NOW(),
		    next_retry_at = NULL, response_code = $2, response_body = $3
		WHERE id = $4 AND status = 'pending'
	`

	_, err := r.db.Pool.Exec(ctx, query, attempts, responseCode, responseBody, id)
	if err != nil {
		return fmt.Errorf("failed to record webhook success: %w", err)
	}
	return nil
}

// RecordRetry persists a failed attempt that will be retried: the log stays
// pending and next_retry_at is set so the scheduler can recover it even if
// the delayed re-enqueue is lost.
func (r *WebhookRepository) RecordRetry(ctx context.Context, id string, attempts int, nextRetryAt time.Time, responseCode int, responseBody string) error {
	query := `
		UPDATE webhook_logs
		SET status = 'pending', attempts = $1, last_attempt_at = NOW(),
		    next_retry_at = $2, response_code = $3, response_body = $4
		WHERE id = $5 AND status = 'pending'
	`

	_, err := r.db.Pool.Exec(ctx, query, attempts, nextRetryAt, responseCode, responseBody, id)
	if err != nil {
		return fmt.Errorf("failed to record webhook retry: %w", err)
	}
	return nil
}

// RecordFailure marks the terminal failed state after the attempt ceiling.
func (r *WebhookRepository) RecordFailure(ctx context.Context, id string, attempts, responseCode int, responseBody string) error {
	query := `
		UPDATE webhook_logs
		SET status = 'failed', attempts = $1, last_attempt_at = NOW(),
		    next_retry_at = NULL, response_code = $2, response_body = $3
		WHERE id = $4 AND status = 'pending'
	`

	_, err := r.db.Pool.Exec(ctx, query, attempts, responseCode, responseBody, id)
	if err != nil {
		return fmt.Errorf("failed to record webhook failure: %w", err)
	}
	return nil
}

// ResetForRetry rewinds a log for a user-triggered retry, overriding a
// terminal failed status.
func (r *WebhookRepository) ResetForRetry(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_logs
		SET status = 'pending', attempts = 0, next_retry_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reset webhook log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrWebhookLogNotFound
	}
	return nil
}

// DueWebhooks finds pending logs whose retry time has arrived and that
// still have attempts left. Bounded batch; this feeds the retry scheduler.
func (r *WebhookRepository) DueWebhooks(ctx context.Context, now time.Time, limit int) ([]application.DueWebhook, error) {
	query := `
		SELECT wl.id, wl.merchant_id, wl.event, wl.payload, wl.status, wl.attempts,
		       wl.next_retry_at, wl.last_attempt_at, wl.response_code, wl.response_body, wl.created_at,
		       m.webhook_url, m.webhook_secret
		FROM webhook_logs wl
		JOIN merchants m ON wl.merchant_id = m.id
		WHERE wl.status = 'pending'
		  AND wl.next_retry_at IS NOT NULL
		  AND wl.next_retry_at <= $1
		  AND wl.attempts < $2
		  AND m.webhook_url IS NOT NULL
		ORDER BY wl.next_retry_at ASC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, now, domain.MaxDeliveryAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query due webhooks: %w", err)
	}
	defer rows.Close()

	var due []application.DueWebhook
	for rows.Next() {
		var m WebhookLogModel
		var url, secret string
		err := rows.Scan(
			&m.ID, &m.MerchantID, &m.Event, &m.Payload, &m.Status, &m.Attempts,
			&m.NextRetryAt, &m.LastAttemptAt, &m.ResponseCode, &m.ResponseBody, &m.CreatedAt,
			&url, &secret,
		)
		if err != nil {
			return nil, fmt.Errorf("scan due webhook: %w", err)
		}
		due = append(due, application.DueWebhook{Log: m.toDomain(), WebhookURL: url, WebhookSecret: secret})
	}

	return due, rows.Err()
}

// ListByMerchant returns a page of logs plus the total count.
func (r *WebhookRepository) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]*domain.WebhookLog, int, error) {
	query := `
		SELECT id, merchant_id, event, payload, status, attempts,
		       next_retry_at, last_attempt_at, response_code, response_body, created_at
		FROM webhook_logs
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query webhook logs: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.WebhookLog, error) {
		var m WebhookLogModel
		err := row.Scan(
			&m.ID, &m.MerchantID, &m.Event, &m.Payload, &m.Status, &m.Attempts,
			&m.NextRetryAt, &m.LastAttemptAt, &m.ResponseCode, &m.ResponseBody, &m.CreatedAt,
		)
		return m.toDomain(), err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan webhook logs: %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM webhook_logs WHERE merchant_id = $1`
	if err := r.db.Pool.QueryRow(ctx, countQuery, merchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webhook logs: %w", err)
	}

	return results, total, nil
}

func scanWebhookLog(row pgx.Row) (*domain.WebhookLog, error) {
	var m WebhookLogModel
	err := row.Scan(
		&m.ID, &m.MerchantID, &m.Event, &m.Payload, &m.Status, &m.Attempts,
		&m.NextRetryAt, &m.LastAttemptAt, &m.ResponseCode, &m.ResponseBody, &m.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrWebhookLogNotFound
		}
		return nil, fmt.Errorf("failed to scan webhook log: %w", err)
	}
	return m.toDomain(), nil
}
