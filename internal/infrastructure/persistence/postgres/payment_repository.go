package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
)

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, merchant_id, amount, currency, method, vpa,
			status, captured, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		p.ID,
		p.OrderID,
		p.MerchantID,
		p.Amount,
		p.Currency,
		string(p.Method),
		p.VPA,
		string(p.Status),
		p.Captured,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// PaymentByID retrieves a payment. Returns ErrPaymentNotFound if absent.
func (r *PaymentRepository) PaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, merchant_id, amount, currency, method, vpa,
		       status, error_code, error_description, captured, created_at, updated_at
		FROM payments WHERE id = $1
	`

	row := r.db.Pool.QueryRow(ctx, query, id)
	return scanPayment(row)
}

// SettlePayment performs the guarded pending -> terminal transition. The
// WHERE clause makes a redelivered settlement job a no-op: the returned
// flag is false when another worker already settled the payment.
func (r *PaymentRepository) SettlePayment(ctx context.Context, id string, status domain.PaymentStatus, errorCode, errorDescription *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, error_code = $2, error_description = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'pending'
	`

	tag, err := r.db.Pool.Exec(ctx, query, string(status), errorCode, errorDescription, id)
	if err != nil {
		return false, fmt.Errorf("failed to settle payment: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkCaptured sets the captured flag; only meaningful for settled payments.
func (r *PaymentRepository) MarkCaptured(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE payments
		SET captured = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'success'
	`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment captured: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.OrderID, &m.MerchantID, &m.Amount, &m.Currency, &m.Method, &m.VPA,
		&m.Status, &m.ErrorCode, &m.ErrorDescription, &m.Captured, &m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return m.toDomain(), nil
}
