package infra

import "context"

type ProductClientInterface interface {
	GetProductById(ctx context.Context, id uint64) (*ProductInfo, error)
}

type InventoryClientInterface interface {
	CheckAvailability(ctx context.Context, productId uint64, quantity int64) (bool, error)
}

var (
	_ ProductClientInterface   = (*ProductClient)(nil)
	_ InventoryClientInterface = (*InventoryClient)(nil)
)
