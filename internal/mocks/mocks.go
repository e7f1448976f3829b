package mocks

import (
	"context"

	"order-service/internal/domain"
	"order-service/internal/infra"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockProductClient struct {
	mock.Mock
}

type MockInventoryClient struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockEmitter struct {
	mock.Mock
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockEmitter) Emit(ctx context.Context, orderID, customerID uint64, message string) error {
	args := m.Called(ctx, orderID, customerID, message)
	return args.Error(0)
}

func (m *MockProductClient) GetProductById(ctx context.Context, productId uint64) (*infra.ProductInfo, error) {
	args := m.Called(ctx, productId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ProductInfo), args.Error(1)
}

func (m *MockInventoryClient) CheckAvailability(ctx context.Context, productId uint64, quantity int64) (bool, error) {
	args := m.Called(ctx, productId, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByProductId(ctx context.Context, productId uint64) ([]domain.Order, error) {
	args := m.Called(ctx, productId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, orderID, customerID uint64, amount int64, currency string) (*domain.PaymentHandle, error) {
	args := m.Called(ctx, orderID, customerID, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentHandle), args.Error(1)
}

func (m *MockPaymentGateway) FindByIntent(ctx context.Context, intentID string) (*domain.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentGateway) ListByOrder(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentGateway) Apply(ctx context.Context, intentID string, outcome domain.PaymentStatus, method string) (*domain.PaymentTransition, error) {
	args := m.Called(ctx, intentID, outcome, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransition), args.Error(1)
}

func (m *MockPaymentGateway) Confirm(ctx context.Context, intentID string) (*domain.PaymentTransition, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransition), args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id uint64, to domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	args := m.Called(ctx, id, to, from)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.Order), args.Get(1).(domain.OrderStatus), args.Error(2)
}
