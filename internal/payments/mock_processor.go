package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"order-service/internal/domain"

	"github.com/google/uuid"
)

var ErrIntentNotFound = errors.New("payment intent not found at processor")

// MockProcessor is an in-process processor for local runs and tests. Every
// intent confirms as succeeded unless an outcome was set with SetOutcome.
type MockProcessor struct {
	mu       sync.Mutex
	delay    time.Duration
	intents  map[string]IntentRequest
	outcomes map[string]domain.PaymentStatus
	failNext error
}

func NewMockProcessor(delay time.Duration) *MockProcessor {
	return &MockProcessor{
		delay:    delay,
		intents:  make(map[string]IntentRequest),
		outcomes: make(map[string]domain.PaymentStatus),
	}
}

// FailNextCreate makes the next CreateIntent call return err.
func (m *MockProcessor) FailNextCreate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockProcessor) SetOutcome(intentID string, status domain.PaymentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[intentID] = status
}

func (m *MockProcessor) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}

	id := "pi_mock_" + uuid.NewString()
	m.intents[id] = req
	return &Intent{ID: id, ClientSecret: id + "_secret_" + uuid.NewString()}, nil
}

func (m *MockProcessor) ConfirmIntent(ctx context.Context, intentID string) (*Confirmation, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[intentID]; !ok {
		if _, ok := m.outcomes[intentID]; !ok {
			return nil, ErrIntentNotFound
		}
	}
	status, ok := m.outcomes[intentID]
	if !ok {
		status = domain.PaymentSucceeded
	}
	return &Confirmation{Status: status, Method: "card"}, nil
}

var _ Processor = (*MockProcessor)(nil)
