package repository

import (
	"context"

	"order-service/internal/domain"
)

// OrderRepository lookups return (nil, nil) when the order does not exist.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByProductId(ctx context.Context, productId uint64) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) (*domain.Order, error)
	// TransitionStatus moves the order to `to` only while its status is one
	// of `from`. It returns the updated order and the status it left, or a
	// nil order when the order is missing or in another status.
	TransitionStatus(ctx context.Context, id uint64, to domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, domain.OrderStatus, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}
