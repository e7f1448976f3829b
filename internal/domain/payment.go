package domain

import "time"

type PaymentStatus string

const (
	PaymentRequiresConfirmation PaymentStatus = "requires_confirmation"
	PaymentPending              PaymentStatus = "pending"
	PaymentSucceeded            PaymentStatus = "succeeded"
	PaymentFailed               PaymentStatus = "failed"

	// PaymentNone is only ever produced by the joined view.
	PaymentNone PaymentStatus = "none"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentSucceeded || s == PaymentFailed
}

// IsOutcome reports whether s can be reported by a confirmation.
func (s PaymentStatus) IsOutcome() bool {
	return s == PaymentPending || s == PaymentSucceeded || s == PaymentFailed
}

// CanTransition reports whether a payment in status s may move to next.
// A terminal outcome may be applied straight to a payment that still
// requires confirmation.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentRequiresConfirmation:
		return next == PaymentPending || next.Terminal()
	case PaymentPending:
		return next.Terminal()
	}
	return false
}

// Payment rows belong to the payment gateway adapter. Retries create new
// rows; an existing row only ever changes status, method and UpdatedAt.
type Payment struct {
	ID               uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID          uint64        `json:"order_id" gorm:"not null;index"`
	CustomerID       uint64        `json:"customer_id" gorm:"not null;index"`
	Amount           int64         `json:"amount" gorm:"not null"`
	Currency         string        `json:"currency" gorm:"size:8;not null"`
	Status           PaymentStatus `json:"status" gorm:"size:32;not null;index"`
	ExternalIntentID string        `json:"external_intent_id" gorm:"size:128;uniqueIndex;not null"`
	ClientSecret     string        `json:"client_secret,omitempty" gorm:"size:255"`
	Method           string        `json:"method,omitempty" gorm:"size:64"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// PaymentHandle is what a caller needs to complete a payment client side.
type PaymentHandle struct {
	Payment      Payment `json:"payment"`
	ClientSecret string  `json:"client_secret,omitempty"`
}

// PaymentTransition is the result of applying a confirmation outcome.
type PaymentTransition struct {
	Payment Payment       `json:"payment"`
	From    PaymentStatus `json:"from"`
	Changed bool          `json:"changed"`
}
