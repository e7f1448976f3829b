package services

import (
	"context"
	"log"

	"order-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

// JoinView attaches to each order its most recently created payment, ties
// going to the highest id. It does no I/O and does not alias its inputs.
func JoinView(orders []domain.Order, paymentsByOrder map[uint64][]domain.Payment) []domain.OrderPaymentView {
	views := make([]domain.OrderPaymentView, 0, len(orders))
	for _, o := range orders {
		v := domain.OrderPaymentView{Order: o, PaymentStatus: domain.PaymentNone}
		if latest := latestPayment(paymentsByOrder[o.ID]); latest != nil {
			p := *latest
			v.Payment = &p
			v.PaymentStatus = p.Status
		}
		views = append(views, v)
	}
	return views
}

func latestPayment(ps []domain.Payment) *domain.Payment {
	var best *domain.Payment
	for i := range ps {
		p := &ps[i]
		if best == nil ||
			p.CreatedAt.After(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID > best.ID) {
			best = p
		}
	}
	return best
}

type ViewFilter struct {
	OrderStatus   domain.OrderStatus
	PaymentStatus domain.PaymentStatus
}

func FilterViews(views []domain.OrderPaymentView, f ViewFilter) []domain.OrderPaymentView {
	out := make([]domain.OrderPaymentView, 0, len(views))
	for _, v := range views {
		if f.OrderStatus != "" && v.Order.Status != f.OrderStatus {
			continue
		}
		if f.PaymentStatus != "" && v.PaymentStatus != f.PaymentStatus {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ListOrderViews snapshots all orders, looks up each order's payments
// concurrently and joins the two. A failed lookup shows that order without
// a payment instead of failing the whole view.
func (u *OrderService) ListOrderViews(ctx context.Context, f ViewFilter) ([]domain.OrderPaymentView, error) {
	orders, err := u.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	// one slot per order, so branches never share memory
	slots := make([][]domain.Payment, len(orders))

	var g errgroup.Group
	g.SetLimit(workerLimit(u.opts.ViewWorkers))
	for i := range orders {
		i := i
		g.Go(func() error {
			cctx, cancel := u.callCtx(ctx)
			defer cancel()
			ps, err := u.payments.ListByOrder(cctx, orders[i].ID)
			if err != nil {
				log.Printf("payment lookup for order %d failed, showing no payment: %v", orders[i].ID, err)
				return nil
			}
			slots[i] = ps
			return nil
		})
	}
	_ = g.Wait()

	byOrder := make(map[uint64][]domain.Payment, len(orders))
	for i, o := range orders {
		if len(slots[i]) > 0 {
			byOrder[o.ID] = slots[i]
		}
	}

	return FilterViews(JoinView(orders, byOrder), f), nil
}
