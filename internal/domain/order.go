package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is owned by the order store. Status is the only field that changes
// after creation; TotalPrice is the catalog price at submission times the quantity.
type Order struct {
	ID         uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID uint64      `json:"customer_id" gorm:"not null;index"`
	ProductId  uint64      `json:"product_id" gorm:"not null;index"`
	Quantity   int64       `json:"quantity" gorm:"not null"`
	TotalPrice int64       `json:"total_price" gorm:"not null"`
	Status     OrderStatus `json:"status" gorm:"size:16;not null;default:'pending';index"`
	CreatedAt  time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

// OrderRequest is one element of a batch submission.
type OrderRequest struct {
	CustomerID uint64 `json:"customer_id"`
	ProductID  uint64 `json:"product_id"`
	Quantity   int64  `json:"quantity"`
}
