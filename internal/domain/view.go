package domain

import "time"

// OrderPaymentView joins an order with its latest payment. It is derived
// and never persisted.
type OrderPaymentView struct {
	Order         Order         `json:"order"`
	Payment       *Payment      `json:"payment,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

type FailedItem struct {
	Index   int          `json:"index"`
	Request OrderRequest `json:"request"`
	Reason  string       `json:"reason"`
	Error   string       `json:"error"`
}

// BatchSubmission is the per-item accounting of one SubmitBatch call.
// Successful + Failed always equals Total.
type BatchSubmission struct {
	Total       int           `json:"total"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	FailedItems []FailedItem  `json:"failed_items"`
	Orders      []Order       `json:"orders"`
	Elapsed     time.Duration `json:"elapsed"`
}
