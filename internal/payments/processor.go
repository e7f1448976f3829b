package payments

import (
	"context"

	"order-service/internal/domain"
)

type IntentRequest struct {
	OrderID    uint64
	CustomerID uint64
	Amount     int64
	Currency   string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type Confirmation struct {
	Status domain.PaymentStatus
	Method string
}

// Processor is the external payment processor behind the gateway.
// ConfirmIntent must be safe to call more than once for the same intent.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID string) (*Confirmation, error)
}
