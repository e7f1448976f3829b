package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"order-service/internal/domain"
	"order-service/internal/infra"
	"order-service/internal/metrics"
	"order-service/internal/notify"
	"order-service/internal/payments"
	"order-service/internal/repository"

	"github.com/redis/go-redis/v9"
)

var ErrOrderNotFound = domain.ErrOrderNotFound

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Options struct {
	// CallTimeout bounds every call to a collaborator.
	CallTimeout     time.Duration
	BatchWorkers    int
	BatchTimeout    time.Duration
	ViewWorkers     int
	ProductCacheTTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		CallTimeout:     2 * time.Second,
		BatchWorkers:    10,
		BatchTimeout:    30 * time.Second,
		ViewWorkers:     16,
		ProductCacheTTL: time.Minute,
	}
}

// OrderService orchestrates orders and their payments. It owns neither
// orders nor payments, only the sequencing between the two stores.
type OrderService struct {
	repo        repository.OrderRepository
	prodClient  infra.ProductClientInterface
	inventory   infra.InventoryClientInterface
	payments    payments.GatewayInterface
	publisher   notify.Publisher
	emitter     notify.Emitter
	redisClient *redis.Client
	metrics     *metrics.Metrics
	opts        Options

	background sync.WaitGroup
}

func NewOrderService(r repository.OrderRepository, p infra.ProductClientInterface, gw payments.GatewayInterface, pub notify.Publisher, em notify.Emitter) *OrderService {
	return &OrderService{
		repo:       r,
		prodClient: p,
		payments:   gw,
		publisher:  pub,
		emitter:    em,
		opts:       DefaultOptions(),
	}
}

func (u *OrderService) SetRedisClient(client *redis.Client) {
	u.redisClient = client
}

// SetInventoryClient enables the availability check on order creation.
func (u *OrderService) SetInventoryClient(client infra.InventoryClientInterface) {
	u.inventory = client
}

// SetMetrics enables order and payment collectors; nil disables them.
func (u *OrderService) SetMetrics(m *metrics.Metrics) {
	u.metrics = m
}

// RefreshActiveOrders seeds the active-orders gauge from the order store.
func (u *OrderService) RefreshActiveOrders(ctx context.Context) error {
	if u.metrics == nil {
		return nil
	}
	orders, err := u.ListOrders(ctx)
	if err != nil {
		return err
	}
	pending := 0
	for _, o := range orders {
		if o.Status == domain.StatusPending {
			pending++
		}
	}
	u.metrics.SetActiveOrders(pending)
	return nil
}

func (u *OrderService) SetOptions(opts Options) {
	u.opts = opts
}

// Wait blocks until background event publishing and notifications finish.
func (u *OrderService) Wait() {
	u.background.Wait()
}

type CreateOrderRequest struct {
	CustomerID  uint64 `json:"customer_id"`
	ProductID   uint64 `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	WantPayment bool   `json:"with_payment"`
	Currency    string `json:"currency"`
}

// CreateOrderResult carries the persisted order and, when requested, the
// attached payment. PaymentErr is set when the order was stored but the
// payment intent could not be created; the order is kept in that case.
type CreateOrderResult struct {
	Order        *domain.Order         `json:"order"`
	Payment      *domain.PaymentHandle `json:"payment,omitempty"`
	PaymentError string                `json:"payment_error,omitempty"`
	PaymentErr   error                 `json:"-"`
}

func (r *CreateOrderResult) PaymentAttached() bool {
	return r.Payment != nil
}

func (u *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.WantPayment && !currencyPattern.MatchString(currency) {
		return nil, domain.Validationf("currency must be a 3-letter code, got %q", req.Currency)
	}

	order, err := u.createOrder(ctx, domain.OrderRequest{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return nil, err
	}

	result := &CreateOrderResult{Order: order}
	if !req.WantPayment {
		return result, nil
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	handle, err := u.payments.CreateIntent(cctx, order.ID, order.CustomerID, order.TotalPrice, currency)
	if err != nil {
		log.Printf("order %d stored but payment intent failed: %v", order.ID, err)
		result.PaymentErr = err
		if !errors.Is(err, domain.ErrValidation) {
			result.PaymentErr = domain.Transient("create payment intent", err)
		}
		result.PaymentError = "Failed to create payment intent: " + err.Error()
		return result, nil
	}
	result.Payment = handle
	return result, nil
}

// createOrder is the no-payment path shared by CreateOrder and SubmitBatch.
func (u *OrderService) createOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if req.CustomerID == 0 {
		return nil, domain.Validationf("customer_id is required")
	}
	if req.ProductID == 0 {
		return nil, fmt.Errorf("%w: product_id is required", domain.ErrInvalidReference)
	}
	if req.Quantity < 1 {
		return nil, domain.Validationf("quantity must be >= 1, got %d", req.Quantity)
	}

	prod, err := u.getProductWithCache(ctx, req.ProductID)
	if err != nil {
		return nil, domain.Transient("catalog lookup", err)
	}
	if prod == nil {
		return nil, fmt.Errorf("%w: product %d not found", domain.ErrInvalidReference, req.ProductID)
	}
	if prod.Price <= 0 {
		return nil, domain.Validationf("product %d has no valid price", req.ProductID)
	}

	if u.inventory != nil {
		cctx, cancel := u.callCtx(ctx)
		available, err := u.inventory.CheckAvailability(cctx, req.ProductID, req.Quantity)
		cancel()
		if err != nil {
			return nil, domain.Transient("inventory check", err)
		}
		if !available {
			return nil, domain.Validationf("product %d not available in quantity %d", req.ProductID, req.Quantity)
		}
	}

	order := &domain.Order{
		CustomerID: req.CustomerID,
		ProductId:  req.ProductID,
		Quantity:   req.Quantity,
		TotalPrice: prod.Price * req.Quantity,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now(),
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	if err := u.repo.Save(cctx, order); err != nil {
		return nil, domain.Transient("order store save", err)
	}
	u.metrics.OrderCreated()

	u.publishOrderCreatedEvent(order)
	u.notify(order.ID, order.CustomerID, fmt.Sprintf("Order #%d placed: %d x product %d for %s",
		order.ID, order.Quantity, order.ProductId, domain.FormatAmount(order.TotalPrice, "")))

	return order, nil
}

func (u *OrderService) getProductWithCache(ctx context.Context, productId uint64) (*infra.ProductInfo, error) {
	cacheKey := fmt.Sprintf("product:%d", productId)

	if u.redisClient != nil {
		cached, err := u.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var prod infra.ProductInfo
			if err := json.Unmarshal([]byte(cached), &prod); err == nil {
				return &prod, nil
			}
		}
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	prod, err := u.prodClient.GetProductById(cctx, productId)
	if err != nil {
		return nil, err
	}

	if u.redisClient != nil && prod != nil {
		if data, err := json.Marshal(prod); err == nil {
			u.redisClient.Set(ctx, cacheKey, data, u.opts.ProductCacheTTL)
		}
	}

	return prod, nil
}

func (u *OrderService) publishOrderCreatedEvent(order *domain.Order) {
	evt := domain.OrderCreatedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ProductId:  order.ProductId,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
	}

	u.goBackground(func(ctx context.Context) {
		if err := u.publisher.Publish(ctx, "order.created", evt); err != nil {
			log.Printf("Failed to publish order.created for order %d: %v", order.ID, err)
		}
	})
}

// notify emits a notification after the caller's write has committed.
// Failures are logged only.
func (u *OrderService) notify(orderID, customerID uint64, message string) {
	u.goBackground(func(ctx context.Context) {
		if err := u.emitter.Emit(ctx, orderID, customerID, message); err != nil {
			log.Printf("Failed to send notification for order %d: %v", orderID, err)
		}
	})
}

func (u *OrderService) goBackground(fn func(ctx context.Context)) {
	u.background.Add(1)
	go func() {
		defer u.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), u.opts.CallTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (u *OrderService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, u.opts.CallTimeout)
}

func (u *OrderService) GetOrderById(ctx context.Context, id uint64) (*domain.Order, error) {
	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	o, err := u.repo.FindByID(cctx, id)
	if err != nil {
		return nil, domain.Transient("order store lookup", err)
	}

	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderService) GetOrderByProductId(ctx context.Context, id uint64) ([]domain.Order, error) {
	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	o, err := u.repo.FindByProductId(cctx, id)
	if err != nil {
		return nil, domain.Transient("order store lookup", err)
	}

	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	orders, err := u.repo.FindAll(cctx)
	if err != nil {
		return nil, domain.Transient("order store list", err)
	}
	return orders, nil
}

func (u *OrderService) PaymentsForOrder(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	ps, err := u.payments.ListByOrder(cctx, orderID)
	if err != nil {
		return nil, domain.Transient("payment lookup", err)
	}
	return ps, nil
}

// SetOrderStatus is an operator override. It may contradict the payment
// state; the notification it emits records any such conflict.
func (u *OrderService) SetOrderStatus(ctx context.Context, orderID uint64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Validationf("unknown order status %q", status)
	}

	existing, err := u.GetOrderById(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	updated, err := u.repo.UpdateStatus(cctx, orderID, status)
	if err != nil {
		return nil, domain.Transient("order store update", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	u.metrics.StatusChanged(existing.Status, status)

	message := fmt.Sprintf("Order #%d status changed from %s to %s by operator", orderID, existing.Status, status)
	latest, err := u.latestPayment(ctx, orderID)
	if err != nil {
		log.Printf("status override for order %d: payment lookup failed: %v", orderID, err)
	} else if conflict := paymentConflict(status, latest); conflict != "" {
		message += "; override conflicts with payment state: " + conflict
		log.Printf("order %d: %s", orderID, message)
	}
	u.notify(updated.ID, updated.CustomerID, message)

	return updated, nil
}

func (u *OrderService) latestPayment(ctx context.Context, orderID uint64) (*domain.Payment, error) {
	ps, err := u.PaymentsForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return latestPayment(ps), nil
}

func paymentConflict(status domain.OrderStatus, p *domain.Payment) string {
	if p == nil {
		return ""
	}
	switch {
	case status == domain.StatusCancelled && p.Status == domain.PaymentSucceeded:
		return fmt.Sprintf("payment %s succeeded for %s", p.ExternalIntentID, domain.FormatAmount(p.Amount, p.Currency))
	case status == domain.StatusCompleted && p.Status != domain.PaymentSucceeded:
		return fmt.Sprintf("latest payment %s is %s", p.ExternalIntentID, p.Status)
	case status == domain.StatusPending && p.Status == domain.PaymentSucceeded:
		return fmt.Sprintf("payment %s already succeeded", p.ExternalIntentID)
	}
	return ""
}

// DeleteOrder removes an order that no payment references and returns it.
func (u *OrderService) DeleteOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	order, err := u.GetOrderById(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ps, err := u.PaymentsForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		return nil, domain.Validationf("order %d is referenced by %d payment(s)", orderID, len(ps))
	}

	cctx, cancel := u.callCtx(ctx)
	defer cancel()
	deleted, err := u.repo.Delete(cctx, orderID)
	if err != nil {
		return nil, domain.Transient("order store delete", err)
	}
	if !deleted {
		return nil, ErrOrderNotFound
	}
	u.metrics.OrderRemoved(order.Status)

	u.notify(order.ID, order.CustomerID, fmt.Sprintf("Order #%d was cancelled and removed", order.ID))
	return order, nil
}

func (u *OrderService) WarmupProductCache(ctx context.Context, productIds []uint64) error {
	if u.redisClient == nil {
		return nil
	}

	for _, id := range productIds {
		cctx, cancel := u.callCtx(ctx)
		prod, err := u.prodClient.GetProductById(cctx, id)
		cancel()
		if err != nil {
			log.Printf("Failed to warm up cache for product %d: %v", id, err)
			continue
		}

		if prod != nil {
			cacheKey := fmt.Sprintf("product:%d", id)
			if data, err := json.Marshal(prod); err == nil {
				u.redisClient.Set(ctx, cacheKey, data, 5*u.opts.ProductCacheTTL)
			}
		}
	}

	return nil
}
