package http

import "order-service/internal/domain"

type CreateOrderRequest struct {
	CustomerID uint64 `json:"customer_id" binding:"required"`
	ProductID  uint64 `json:"product_id" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderWithPaymentRequest struct {
	CreateOrderRequest
	Currency string `json:"currency" binding:"required,len=3"`
}

type CreateOrderResponse struct {
	ID uint64 `json:"id"`
}

type CreateOrderWithPaymentResponse struct {
	Order         *domain.Order  `json:"order"`
	PaymentIntent *PaymentIntent `json:"payment_intent,omitempty"`
	PaymentError  string         `json:"payment_error,omitempty"`
}

type PaymentIntent struct {
	ID           string               `json:"id"`
	ClientSecret string               `json:"client_secret"`
	Amount       int64                `json:"amount"`
	Currency     string               `json:"currency"`
	Status       domain.PaymentStatus `json:"status"`
}

type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	// Outcome is optional; without it the processor is asked for the result.
	Outcome domain.PaymentStatus `json:"outcome"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
