package infra

import (
	"context"

	"order-service/internal/infra/breaker"
)

type breakerProductClient struct {
	next ProductClientInterface
	b    *breaker.Breaker
}

// WithProductBreaker guards catalog lookups. A missing product is a
// successful call and never counts towards opening the breaker.
func WithProductBreaker(next ProductClientInterface, b *breaker.Breaker) ProductClientInterface {
	return &breakerProductClient{next: next, b: b}
}

func (c *breakerProductClient) GetProductById(ctx context.Context, id uint64) (*ProductInfo, error) {
	var prod *ProductInfo
	err := c.b.Do(func() error {
		var err error
		prod, err = c.next.GetProductById(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prod, nil
}

type breakerInventoryClient struct {
	next InventoryClientInterface
	b    *breaker.Breaker
}

func WithInventoryBreaker(next InventoryClientInterface, b *breaker.Breaker) InventoryClientInterface {
	return &breakerInventoryClient{next: next, b: b}
}

func (c *breakerInventoryClient) CheckAvailability(ctx context.Context, productId uint64, quantity int64) (bool, error) {
	var available bool
	err := c.b.Do(func() error {
		var err error
		available, err = c.next.CheckAvailability(ctx, productId, quantity)
		return err
	})
	if err != nil {
		return false, err
	}
	return available, nil
}
