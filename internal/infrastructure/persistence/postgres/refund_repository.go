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

type RefundRepository struct {
	db *DB
}

func NewRefundRepository(db *DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// CreateRefund inserts directly under the primary-key constraint. A unique
// violation surfaces as ErrDuplicateRefundID so the caller can regenerate
// the identifier and retry; the check is never separated from the write.
func (r *RefundRepository) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	query := `
		INSERT INTO refunds (id, payment_id, merchant_id, amount, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		refund.ID,
		refund.PaymentID,
		refund.MerchantID,
		refund.Amount,
		refund.Reason,
		string(refund.Status),
		refund.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return application.ErrDuplicateRefundID
		}
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

// RefundByID retrieves a refund. Returns ErrRefundNotFound if absent.
func (r *RefundRepository) RefundByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `
		SELECT id, payment_id, merchant_id, amount, reason, status, created_at, processed_at
		FROM refunds WHERE id = $1
	`

	var m RefundModel
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.PaymentID, &m.MerchantID, &m.Amount, &m.Reason, &m.Status, &m.CreatedAt, &m.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}

	return m.toDomain(), nil
}

// MarkProcessed performs the guarded pending -> processed transition. The
// flag is false when the refund was already processed by another worker.
func (r *RefundRepository) MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE refunds
		SET status = 'processed', processed_at = $1
		WHERE id = $2 AND status = 'pending'
	`

	tag, err := r.db.Pool.Exec(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark refund processed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SumRefunds returns the combined amount of a payment's refunds in the
// given statuses. This is the ledger's raw accounting query.
func (r *RefundRepository) SumRefunds(ctx context.Context, paymentID string, statuses ...domain.RefundStatus) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM refunds
		WHERE payment_id = $1 AND status = ANY($2)
	`

	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, query, paymentID, names).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum refunds: %w", err)
	}

	return total, nil
}
