package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rivetpay/gateway/internal/application"
	"github.com/rivetpay/gateway/internal/domain"
)

type OrderService struct {
	orders application.OrderStore
	logger *slog.Logger
}

func NewOrderService(orders application.OrderStore, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

func (s *OrderService) CreateOrder(ctx context.Context, merchantID string, cmd application.CreateOrderCommand) (*domain.Order, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, application.NewValidationError(validationMessage(err))
	}

	order, err := domain.NewOrder(merchantID, cmd.Amount, cmd.Currency, cmd.Receipt)
	if err != nil {
		return nil, application.NewValidationError(err.Error())
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.Error("failed to create order", "merchant_id", merchantID, "error", err)
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"merchant_id", merchantID,
		"amount", order.Amount,
	)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, merchantID, orderID string) (*domain.Order, error) {
	order, err := s.orders.OrderByID(ctx, orderID)
	if errors.Is(err, application.ErrOrderNotFound) {
		return nil, application.NewNotFoundError("order")
	}
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if order.MerchantID != merchantID {
		return nil, application.NewNotFoundError("order")
	}
	return order, nil
}
