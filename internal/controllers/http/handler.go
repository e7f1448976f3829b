package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"order-service/internal/domain"
	"order-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const productOrdersTTL = 10 * time.Second

type Handler struct {
	service *services.OrderService
	rdb     *redis.Client
}

// NewHandler wires the HTTP surface. rdb may be nil, in which case
// orders-by-product responses are not cached.
func NewHandler(u *services.OrderService, rdb *redis.Client) *Handler {
	return &Handler{service: u, rdb: rdb}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	orders := r.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.POST("/with-payment", h.CreateOrderWithPayment)
	orders.GET("", h.ListOrders)
	orders.GET("/views", h.ListOrderViews)
	orders.GET("/product/:productId", h.GetOrderByProduct)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", h.UpdateOrderStatus)
	orders.DELETE("/:id", h.DeleteOrder)

	payments := r.Group("/payments")
	payments.POST("/confirm", h.ConfirmPayment)
	payments.GET("/order/:orderId", h.GetPaymentsForOrder)
}

// RegisterMetrics exposes the collectors gathered by g at path.
func RegisterMetrics(r *gin.Engine, path string, g prometheus.Gatherer) {
	r.GET(path, gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateOrder(c.Request.Context(), services.CreateOrderRequest{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.invalidateProductOrders(req.ProductID)
	c.JSON(http.StatusCreated, CreateOrderResponse{ID: result.Order.ID})
}

func (h *Handler) CreateOrderWithPayment(c *gin.Context) {
	var req CreateOrderWithPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateOrder(c.Request.Context(), services.CreateOrderRequest{
		CustomerID:  req.CustomerID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		WantPayment: true,
		Currency:    req.Currency,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.invalidateProductOrders(req.ProductID)

	resp := CreateOrderWithPaymentResponse{Order: result.Order, PaymentError: result.PaymentError}
	if result.PaymentAttached() {
		p := result.Payment.Payment
		resp.PaymentIntent = &PaymentIntent{
			ID:           p.ExternalIntentID,
			ClientSecret: result.Payment.ClientSecret,
			Amount:       p.Amount,
			Currency:     p.Currency,
			Status:       p.Status,
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.service.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) ListOrderViews(c *gin.Context) {
	filter := services.ViewFilter{
		OrderStatus:   domain.OrderStatus(c.Query("status")),
		PaymentStatus: domain.PaymentStatus(c.Query("payment_status")),
	}
	if filter.OrderStatus != "" && !filter.OrderStatus.Valid() {
		badRequest(c, domain.Validationf("unknown order status %q", filter.OrderStatus))
		return
	}

	views, err := h.service.ListOrderViews(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrderById(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrderByProduct(c *gin.Context) {
	productId, ok := parseID(c, "productId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cacheKey := productOrdersKey(productId)

	if h.rdb != nil {
		if b, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	orders, err := h.service.GetOrderByProductId(ctx, productId)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.rdb != nil {
		if data, err := json.Marshal(orders); err == nil {
			h.rdb.Set(ctx, cacheKey, data, productOrdersTTL)
		}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.service.SetOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	h.invalidateProductOrders(order.ProductId)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.DeleteOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.invalidateProductOrders(order.ProductId)
	c.Status(http.StatusNoContent)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		result *services.ConfirmResult
		err    error
	)
	if req.Outcome == "" {
		result, err = h.service.SyncPayment(c.Request.Context(), req.PaymentIntentID)
	} else {
		result, err = h.service.ConfirmPayment(c.Request.Context(), req.PaymentIntentID, req.Outcome)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if result.Order != nil {
		h.invalidateProductOrders(result.Order.ProductId)
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetPaymentsForOrder(c *gin.Context) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	ps, err := h.service.PaymentsForOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if ps == nil {
		ps = []domain.Payment{}
	}
	c.JSON(http.StatusOK, ps)
}

func (h *Handler) invalidateProductOrders(productId uint64) {
	if h.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.rdb.Del(ctx, productOrdersKey(productId)).Err(); err != nil {
		log.Printf("invalidate orders cache for product %d: %v", productId, err)
	}
}

func productOrdersKey(productId uint64) string {
	return "orders:product:" + strconv.FormatUint(productId, 10)
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, domain.Validationf("%s must be a positive integer", param))
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: domain.KindValidation})
}

func writeError(c *gin.Context, err error) {
	kind := domain.ErrorKind(err)
	c.JSON(statusFor(kind), ErrorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(kind string) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInvalidReference, domain.KindUnknownIntent:
		return http.StatusNotFound
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	case domain.KindCancelled:
		return 499
	}
	return http.StatusInternalServerError
}
