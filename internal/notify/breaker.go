package notify

import (
	"context"

	"order-service/internal/infra/breaker"
)

type breakerEmitter struct {
	next Emitter
	b    *breaker.Breaker
}

// WithBreaker stops calling a failing notification channel until the
// breaker lets a trial call through.
func WithBreaker(next Emitter, b *breaker.Breaker) Emitter {
	return &breakerEmitter{next: next, b: b}
}

func (e *breakerEmitter) Emit(ctx context.Context, orderID, customerID uint64, message string) error {
	return e.b.Do(func() error {
		return e.next.Emit(ctx, orderID, customerID, message)
	})
}
