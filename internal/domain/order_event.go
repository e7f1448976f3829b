package domain

import "time"

type OrderCreatedEvent struct {
	OrderID    uint64    `json:"orderId"`
	CustomerID uint64    `json:"customerId"`
	ProductId  uint64    `json:"productId"`
	Quantity   int64     `json:"quantity"`
	TotalPrice int64     `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

type OrderNotification struct {
	OrderID    uint64    `json:"order_id"`
	CustomerID uint64    `json:"customer_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
