package notify

import (
	"context"
	"log"
	"time"

	"order-service/internal/domain"
)

const RoutingKey = "notification.order"

// Emitter sends an order notification. Callers treat it as fire-and-forget:
// a returned error is logged, never propagated.
type Emitter interface {
	Emit(ctx context.Context, orderID, customerID uint64, message string) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// BrokerEmitter publishes notifications through a message broker.
type BrokerEmitter struct {
	pub Publisher
}

func NewBrokerEmitter(pub Publisher) *BrokerEmitter {
	return &BrokerEmitter{pub: pub}
}

func (e *BrokerEmitter) Emit(ctx context.Context, orderID, customerID uint64, message string) error {
	return e.pub.Publish(ctx, RoutingKey, domain.OrderNotification{
		OrderID:    orderID,
		CustomerID: customerID,
		Message:    message,
		CreatedAt:  time.Now(),
	})
}

// LogEmitter is used when no broker is configured.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, orderID, customerID uint64, message string) error {
	log.Printf("notification order=%d customer=%d: %s", orderID, customerID, message)
	return nil
}

// LogPublisher stands in for a broker publisher when none is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, routingKey string, data any) error {
	log.Printf("event %s: %+v", routingKey, data)
	return nil
}

var (
	_ Emitter   = (*BrokerEmitter)(nil)
	_ Emitter   = LogEmitter{}
	_ Publisher = LogPublisher{}
)
