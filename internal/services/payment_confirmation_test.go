package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"order-service/internal/domain"
	"order-service/internal/metrics"
	"order-service/internal/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func transition(status, from domain.PaymentStatus, changed bool) *domain.PaymentTransition {
	return &domain.PaymentTransition{
		Payment: CreateMockPayment(1, TestOrderID, TestIntentID, 3000, status, time.Now()),
		From:    from,
		Changed: changed,
	}
}

var (
	settleFrom = []domain.OrderStatus{domain.StatusPending, domain.StatusCancelled}
	repeatFrom = []domain.OrderStatus{domain.StatusPending}
)

func TestOrderService_ConfirmPayment(t *testing.T) {
	tests := []struct {
		name          string
		intentID      string
		outcome       domain.PaymentStatus
		setupMocks    func(*serviceMocks)
		expectedError error
		expectChanged bool
		expectOrder   bool
	}{
		{
			name:     "succeeded completes the order",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentRequiresConfirmation, true), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
					Return(CreateMockOrder(TestOrderID, 7, 3, 3000, domain.StatusCompleted), domain.StatusPending, nil)
			},
			expectChanged: true,
			expectOrder:   true,
		},
		{
			name:     "settling confirmation on an already completed order",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentPending, true), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
					Return(nil, domain.OrderStatus(""), nil)
				m.repo.On("FindByID", mock.Anything, TestOrderID).
					Return(CreateMockOrder(TestOrderID, 7, 3, 3000, domain.StatusCompleted), nil)
			},
			expectChanged: true,
		},
		{
			name:     "settling confirmation for a missing order",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentPending, true), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
					Return(nil, domain.OrderStatus(""), nil)
				m.repo.On("FindByID", mock.Anything, TestOrderID).Return(nil, nil)
			},
			expectedError: domain.ErrInvalidReference,
		},
		{
			name:     "failed leaves the order untouched",
			intentID: TestIntentID,
			outcome:  domain.PaymentFailed,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentFailed, "").
					Return(transition(domain.PaymentFailed, domain.PaymentPending, true), nil)
			},
			expectChanged: true,
		},
		{
			name:     "pending is recorded without touching the order",
			intentID: TestIntentID,
			outcome:  domain.PaymentPending,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentPending, "").
					Return(transition(domain.PaymentPending, domain.PaymentRequiresConfirmation, true), nil)
			},
			expectChanged: true,
		},
		{
			name:     "duplicate confirmation is a no-op",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentSucceeded, false), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, repeatFrom).
					Return(nil, domain.OrderStatus(""), nil)
			},
		},
		{
			name:     "repeat completes an order left pending by an earlier attempt",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentSucceeded, false), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, repeatFrom).
					Return(CreateMockOrder(TestOrderID, 7, 3, 3000, domain.StatusCompleted), domain.StatusPending, nil)
			},
			expectOrder: true,
		},
		{
			name:     "late failure after success is a no-op",
			intentID: TestIntentID,
			outcome:  domain.PaymentFailed,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentFailed, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentSucceeded, false), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, repeatFrom).
					Return(nil, domain.OrderStatus(""), nil)
			},
		},
		{
			name:     "repeat after a failed payment does not touch the order",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentFailed, domain.PaymentFailed, false), nil)
			},
		},
		{
			name:     "unknown intent",
			intentID: "pi_nope",
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, "pi_nope", domain.PaymentSucceeded, "").
					Return(nil, fmt.Errorf("%w: pi_nope", domain.ErrUnknownIntent))
			},
			expectedError: domain.ErrUnknownIntent,
		},
		{
			name:     "payment store failure",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(nil, errors.New("connection reset"))
			},
			expectedError: domain.ErrTransient,
		},
		{
			name:     "order store failure after success",
			intentID: TestIntentID,
			outcome:  domain.PaymentSucceeded,
			setupMocks: func(m *serviceMocks) {
				m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
					Return(transition(domain.PaymentSucceeded, domain.PaymentPending, true), nil)
				m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
					Return(nil, domain.OrderStatus(""), errors.New("deadlock"))
			},
			expectedError: domain.ErrTransient,
		},
		{
			name:          "blank intent id",
			intentID:      "  ",
			outcome:       domain.PaymentSucceeded,
			setupMocks:    func(m *serviceMocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "requires_confirmation is not an outcome",
			intentID:      TestIntentID,
			outcome:       domain.PaymentRequiresConfirmation,
			setupMocks:    func(m *serviceMocks) {},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newTestService()
			tt.setupMocks(m)

			result, err := service.ConfirmPayment(context.Background(), tt.intentID, tt.outcome)
			service.Wait()

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectChanged, result.Changed)
				if tt.expectOrder {
					require.NotNil(t, result.Order)
					assert.Equal(t, domain.StatusCompleted, result.Order.Status)
				} else {
					assert.Nil(t, result.Order)
					m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
				}
			}

			m.repo.AssertExpectations(t)
			m.gateway.AssertExpectations(t)
		})
	}
}

func TestOrderService_ConfirmPayment_Notifications(t *testing.T) {
	tests := []struct {
		name     string
		outcome  domain.PaymentStatus
		changed  bool
		contains string
	}{
		{name: "success", outcome: domain.PaymentSucceeded, changed: true, contains: "Payment of 30.00 USD succeeded; order #5 completed"},
		{name: "failure", outcome: domain.PaymentFailed, changed: true, contains: "for order #5 failed; order left unchanged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &serviceMocks{
				repo:      new(mocks.MockOrderRepository),
				product:   new(mocks.MockProductClient),
				gateway:   new(mocks.MockPaymentGateway),
				publisher: new(mocks.MockPublisher),
				emitter:   new(mocks.MockEmitter),
			}
			service := NewOrderService(m.repo, m.product, m.gateway, m.publisher, m.emitter)

			m.gateway.On("Apply", mock.Anything, TestIntentID, tt.outcome, "").
				Return(transition(tt.outcome, domain.PaymentRequiresConfirmation, tt.changed), nil)
			m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
				Return(CreateMockOrder(TestOrderID, 7, 3, 3000, domain.StatusCompleted), domain.StatusPending, nil).Maybe()
			m.emitter.On("Emit", mock.Anything, TestOrderID, TestCustomerID, mock.MatchedBy(func(msg string) bool {
				return strings.Contains(msg, tt.contains)
			})).Return(nil).Once()

			_, err := service.ConfirmPayment(context.Background(), TestIntentID, tt.outcome)
			service.Wait()

			require.NoError(t, err)
			m.emitter.AssertExpectations(t)
		})
	}
}

func TestOrderService_ConfirmPayment_DuplicateDoesNotNotify(t *testing.T) {
	m := &serviceMocks{
		repo:      new(mocks.MockOrderRepository),
		product:   new(mocks.MockProductClient),
		gateway:   new(mocks.MockPaymentGateway),
		publisher: new(mocks.MockPublisher),
		emitter:   new(mocks.MockEmitter),
	}
	service := NewOrderService(m.repo, m.product, m.gateway, m.publisher, m.emitter)
	m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
		Return(transition(domain.PaymentSucceeded, domain.PaymentSucceeded, false), nil).Twice()
	m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, repeatFrom).
		Return(nil, domain.OrderStatus(""), nil).Twice()

	for i := 0; i < 2; i++ {
		result, err := service.ConfirmPayment(context.Background(), TestIntentID, domain.PaymentSucceeded)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, domain.PaymentSucceeded, result.Payment.Status)
	}
	service.Wait()

	m.emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.gateway.AssertExpectations(t)
	m.repo.AssertExpectations(t)
}

func TestOrderService_ConfirmPayment_RecordsMetrics(t *testing.T) {
	service, m := newTestService()
	met := metrics.New(prometheus.NewRegistry())
	met.SetActiveOrders(1)
	service.SetMetrics(met)
	m.gateway.On("Apply", mock.Anything, TestIntentID, domain.PaymentSucceeded, "").
		Return(transition(domain.PaymentSucceeded, domain.PaymentRequiresConfirmation, true), nil)
	m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
		Return(CreateMockOrder(TestOrderID, 7, 3, 3000, domain.StatusCompleted), domain.StatusPending, nil)

	_, err := service.ConfirmPayment(context.Background(), TestIntentID, domain.PaymentSucceeded)
	service.Wait()

	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(met.PaymentOutcomes.WithLabelValues("succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(met.OrderStatusUpdated.WithLabelValues("completed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(met.ActiveOrders))
}

func TestOrderService_SyncPayment(t *testing.T) {
	t.Run("applies the processor outcome", func(t *testing.T) {
		service, m := newTestService()
		m.gateway.On("Confirm", mock.Anything, TestIntentID).
			Return(transition(domain.PaymentSucceeded, domain.PaymentRequiresConfirmation, true), nil)
		m.repo.On("TransitionStatus", mock.Anything, TestOrderID, domain.StatusCompleted, settleFrom).
			Return(CreateMockOrder(TestOrderID, 7, 3, 3000, domain.StatusCompleted), domain.StatusPending, nil)

		result, err := service.SyncPayment(context.Background(), TestIntentID)
		service.Wait()

		require.NoError(t, err)
		assert.True(t, result.Changed)
		require.NotNil(t, result.Order)
		assert.Equal(t, domain.StatusCompleted, result.Order.Status)
		m.assertExpectations(t)
	})

	t.Run("processor unreachable", func(t *testing.T) {
		service, m := newTestService()
		m.gateway.On("Confirm", mock.Anything, TestIntentID).Return(nil, context.DeadlineExceeded)

		_, err := service.SyncPayment(context.Background(), TestIntentID)

		assert.ErrorIs(t, err, domain.ErrTransient)
	})

	t.Run("blank intent", func(t *testing.T) {
		service, m := newTestService()

		_, err := service.SyncPayment(context.Background(), "")

		assert.ErrorIs(t, err, domain.ErrValidation)
		m.gateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})
}
