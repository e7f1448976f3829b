package services

import (
	"time"

	"order-service/internal/domain"
	"order-service/internal/infra"
)

func CreateMockOrder(id uint64, productId uint64, quantity int64, totalPrice int64, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: TestCustomerID,
		ProductId:  productId,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		Status:     status,
		CreatedAt:  time.Now(),
	}
}

func CreateMockProduct(id uint64, name string, price int64) *infra.ProductInfo {
	return &infra.ProductInfo{
		ID:    id,
		Name:  name,
		Price: price,
	}
}

func CreateMockPayment(id, orderID uint64, intentID string, amount int64, status domain.PaymentStatus, createdAt time.Time) domain.Payment {
	return domain.Payment{
		ID:               id,
		OrderID:          orderID,
		CustomerID:       TestCustomerID,
		Amount:           amount,
		Currency:         "USD",
		Status:           status,
		ExternalIntentID: intentID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

const (
	TestCustomerID   = uint64(1)
	TestProductID    = uint64(7)
	TestOrderID      = uint64(5)
	TestProductName  = "Test Product"
	TestProductPrice = int64(1000)
	TestIntentID     = "pi_test_5"
)
