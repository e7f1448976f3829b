package payments

import (
	"context"

	"order-service/internal/domain"
)

type GatewayInterface interface {
	CreateIntent(ctx context.Context, orderID, customerID uint64, amount int64, currency string) (*domain.PaymentHandle, error)
	FindByIntent(ctx context.Context, intentID string) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]domain.Payment, error)
	Apply(ctx context.Context, intentID string, outcome domain.PaymentStatus, method string) (*domain.PaymentTransition, error)
	Confirm(ctx context.Context, intentID string) (*domain.PaymentTransition, error)
}

var _ GatewayInterface = (*Gateway)(nil)
