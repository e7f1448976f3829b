package payments

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"order-service/internal/domain"
	"order-service/internal/repository"
)

// A payment moves forward at most twice, so a caller losing the
// compare-and-set race needs at most this many reads to settle.
const maxApplyAttempts = 3

// Gateway owns payment rows and wraps the external processor.
type Gateway struct {
	repo      repository.PaymentRepository
	processor Processor
}

func NewGateway(repo repository.PaymentRepository, processor Processor) *Gateway {
	return &Gateway{repo: repo, processor: processor}
}

func (g *Gateway) CreateIntent(ctx context.Context, orderID, customerID uint64, amount int64, currency string) (*domain.PaymentHandle, error) {
	if amount <= 0 {
		return nil, domain.Validationf("amount must be > 0, got %d", amount)
	}
	currency = strings.ToUpper(currency)

	intent, err := g.processor.CreateIntent(ctx, IntentRequest{
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     amount,
		Currency:   currency,
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:          orderID,
		CustomerID:       customerID,
		Amount:           amount,
		Currency:         currency,
		Status:           domain.PaymentRequiresConfirmation,
		ExternalIntentID: intent.ID,
		ClientSecret:     intent.ClientSecret,
	}
	if err := g.repo.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("store payment for intent %s: %w", intent.ID, err)
	}

	log.Printf("payment intent %s created for order %d (%s)", intent.ID, orderID, domain.FormatAmount(amount, currency))
	return &domain.PaymentHandle{Payment: *payment, ClientSecret: intent.ClientSecret}, nil
}

func (g *Gateway) FindByIntent(ctx context.Context, intentID string) (*domain.Payment, error) {
	p, err := g.repo.FindByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownIntent, intentID)
	}
	return p, nil
}

func (g *Gateway) ListByOrder(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	return g.repo.FindByOrderID(ctx, orderID)
}

// Apply moves the payment behind intentID to outcome. Applying an outcome
// to a payment that is already terminal, or already in that status, is a
// no-op that returns the current state with Changed=false.
func (g *Gateway) Apply(ctx context.Context, intentID string, outcome domain.PaymentStatus, method string) (*domain.PaymentTransition, error) {
	if !outcome.IsOutcome() {
		return nil, domain.Validationf("unsupported confirmation outcome %q", outcome)
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		p, err := g.FindByIntent(ctx, intentID)
		if err != nil {
			return nil, err
		}

		if p.Status == outcome || p.Status.Terminal() {
			if p.Status != outcome {
				log.Printf("payment %s already %s, ignoring outcome %s", intentID, p.Status, outcome)
			}
			return &domain.PaymentTransition{Payment: *p, From: p.Status}, nil
		}
		if !p.Status.CanTransition(outcome) {
			return nil, domain.Validationf("payment %s cannot move from %s to %s", intentID, p.Status, outcome)
		}

		ok, err := g.repo.CompareAndSetStatus(ctx, p.ID, p.Status, outcome, method)
		if err != nil {
			return nil, err
		}
		if ok {
			from := p.Status
			p.Status = outcome
			if method != "" {
				p.Method = method
			}
			p.UpdatedAt = time.Now()
			return &domain.PaymentTransition{Payment: *p, From: from, Changed: true}, nil
		}
	}
	return nil, fmt.Errorf("payment %s kept changing while applying %s", intentID, outcome)
}

// Confirm asks the processor for the intent's outcome and applies it.
func (g *Gateway) Confirm(ctx context.Context, intentID string) (*domain.PaymentTransition, error) {
	if _, err := g.FindByIntent(ctx, intentID); err != nil {
		return nil, err
	}

	conf, err := g.processor.ConfirmIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if conf.Status == domain.PaymentRequiresConfirmation {
		p, err := g.FindByIntent(ctx, intentID)
		if err != nil {
			return nil, err
		}
		return &domain.PaymentTransition{Payment: *p, From: p.Status}, nil
	}
	return g.Apply(ctx, intentID, conf.Status, conf.Method)
}
