package metrics

import (
	"order-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "order_service"

// Metrics holds the engine's collectors. A nil *Metrics records nothing,
// so the service can run without a registry.
type Metrics struct {
	OrdersCreated      prometheus.Counter
	OrderStatusUpdated *prometheus.CounterVec
	ActiveOrders       prometheus.Gauge
	PaymentOutcomes    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders persisted by the service.",
		}),
		OrderStatusUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_updated_total",
			Help:      "Order status changes by target status.",
		}, []string{"status"}),
		ActiveOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_orders",
			Help:      "Orders currently in pending status.",
		}),
		PaymentOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_outcomes_total",
			Help:      "Payment status transitions applied, by resulting status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.OrdersCreated, m.OrderStatusUpdated, m.ActiveOrders, m.PaymentOutcomes)
	return m
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
	m.ActiveOrders.Inc()
}

// StatusChanged records an order moving from one status to another.
// Only moves into or out of pending affect the active gauge.
func (m *Metrics) StatusChanged(from, to domain.OrderStatus) {
	if m == nil {
		return
	}
	m.OrderStatusUpdated.WithLabelValues(string(to)).Inc()
	switch {
	case from == domain.StatusPending && to != domain.StatusPending:
		m.ActiveOrders.Dec()
	case from != domain.StatusPending && to == domain.StatusPending:
		m.ActiveOrders.Inc()
	}
}

func (m *Metrics) OrderRemoved(status domain.OrderStatus) {
	if m == nil {
		return
	}
	if status == domain.StatusPending {
		m.ActiveOrders.Dec()
	}
}

func (m *Metrics) PaymentSettled(status domain.PaymentStatus) {
	if m == nil {
		return
	}
	m.PaymentOutcomes.WithLabelValues(string(status)).Inc()
}

// SetActiveOrders seeds the gauge from the order store on startup.
func (m *Metrics) SetActiveOrders(n int) {
	if m == nil {
		return
	}
	m.ActiveOrders.Set(float64(n))
}
