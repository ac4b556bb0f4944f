package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (id, merchant_id, amount, currency, receipt, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		o.ID, o.MerchantID, o.Amount, o.Currency, o.Receipt, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// OrderByID retrieves an order. Returns ErrOrderNotFound if absent.
func (r *OrderRepository) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, merchant_id, amount, currency, receipt, status, created_at
		FROM orders WHERE id = $1
	`

	var o domain.Order
	var status string
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.MerchantID, &o.Amount, &o.Currency, &o.Receipt, &status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	return &o, nil
}
