package repository

import (
	"context"

	"order-service/internal/domain"
)

type PaymentRepository interface {
	Save(ctx context.Context, payment *domain.Payment) error
	FindByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	// FindByOrderID returns payments newest first.
	FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error)
	// CompareAndSetStatus moves the payment to `to` only if it is still in
	// `from`. It reports whether this call performed the update.
	CompareAndSetStatus(ctx context.Context, id uint64, from, to domain.PaymentStatus, method string) (bool, error)
}
