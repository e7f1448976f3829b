package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"order-service/internal/domain"
)

type ConfirmResult struct {
	Payment domain.Payment `json:"payment"`
	// Changed is false when the confirmation was a duplicate or arrived
	// after the payment had already settled.
	Changed bool `json:"changed"`
	// Order is set when this call completed the linked order.
	Order *domain.Order `json:"order,omitempty"`
}

// ConfirmPayment applies a confirmation result reported for intentID.
// A succeeded payment completes its order exactly once, even across
// duplicate or retried confirmations; a failed payment never touches the order.
func (u *OrderService) ConfirmPayment(ctx context.Context, intentID string, outcome domain.PaymentStatus) (*ConfirmResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.Validationf("payment_intent_id is required")
	}
	if !outcome.IsOutcome() {
		return nil, domain.Validationf("unsupported confirmation outcome %q", outcome)
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	tr, err := u.payments.Apply(cctx, intentID, outcome, "")
	return u.reconcile(ctx, intentID, tr, err)
}

// SyncPayment asks the processor for the intent's outcome and applies it.
func (u *OrderService) SyncPayment(ctx context.Context, intentID string) (*ConfirmResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, domain.Validationf("payment_intent_id is required")
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	tr, err := u.payments.Confirm(cctx, intentID)
	return u.reconcile(ctx, intentID, tr, err)
}

func (u *OrderService) reconcile(ctx context.Context, intentID string, tr *domain.PaymentTransition, err error) (*ConfirmResult, error) {
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownIntent):
			log.Printf("confirmation for unknown payment intent %s", intentID)
			return nil, err
		case errors.Is(err, domain.ErrValidation):
			return nil, err
		}
		return nil, domain.Transient("apply payment confirmation", err)
	}

	result := &ConfirmResult{Payment: tr.Payment, Changed: tr.Changed}
	p := tr.Payment
	if tr.Changed {
		u.metrics.PaymentSettled(p.Status)
	}

	switch {
	case p.Status == domain.PaymentSucceeded:
		// Runs for repeats too: an earlier attempt may have settled the
		// payment and then failed to complete the order.
		order, err := u.completeOrder(ctx, intentID, p, tr.Changed)
		if err != nil {
			return nil, err
		}
		result.Order = order
	case tr.Changed && p.Status == domain.PaymentFailed:
		u.notify(p.OrderID, p.CustomerID, fmt.Sprintf("Payment of %s for order #%d failed; order left unchanged",
			domain.FormatAmount(p.Amount, p.Currency), p.OrderID))
	}

	return result, nil
}

// completeOrder moves the paid order to completed and returns it, or nil
// when the order was not moved by this call. The settling confirmation
// also completes an operator-cancelled order; a repeat only completes an
// order that is still pending.
func (u *OrderService) completeOrder(ctx context.Context, intentID string, p domain.Payment, settled bool) (*domain.Order, error) {
	from := []domain.OrderStatus{domain.StatusPending}
	if settled {
		from = append(from, domain.StatusCancelled)
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	order, prev, err := u.repo.TransitionStatus(cctx, p.OrderID, domain.StatusCompleted, from...)
	if err != nil {
		log.Printf("payment %s succeeded but order %d was not completed: %v", intentID, p.OrderID, err)
		return nil, domain.Transient(fmt.Sprintf("complete order %d", p.OrderID), err)
	}
	if order == nil {
		if !settled {
			return nil, nil
		}
		existing, err := u.repo.FindByID(cctx, p.OrderID)
		if err != nil {
			return nil, domain.Transient("order store lookup", err)
		}
		if existing == nil {
			log.Printf("payment %s succeeded for missing order %d", intentID, p.OrderID)
			return nil, fmt.Errorf("payment %s: %w", intentID, ErrOrderNotFound)
		}
		return nil, nil
	}

	u.metrics.StatusChanged(prev, domain.StatusCompleted)
	u.notify(order.ID, order.CustomerID, fmt.Sprintf("Payment of %s succeeded; order #%d completed",
		domain.FormatAmount(p.Amount, p.Currency), order.ID))
	return order, nil
}
