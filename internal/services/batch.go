package services

import (
	"context"
	"fmt"
	"time"

	"order-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

// SubmitBatch creates each order independently. A failing item is recorded
// and the rest continue; nothing is rolled back. Once ctx is done no new
// items are started and the remaining ones are reported as cancelled.
func (u *OrderService) SubmitBatch(ctx context.Context, reqs []domain.OrderRequest) *domain.BatchSubmission {
	start := time.Now()

	if u.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.opts.BatchTimeout)
		defer cancel()
	}

	type outcome struct {
		order *domain.Order
		err   error
	}
	results := make([]outcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(workerLimit(u.opts.BatchWorkers))
	for i := range reqs {
		i := i
		if err := ctx.Err(); err != nil {
			results[i].err = notIssued(i, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = notIssued(i, err)
				return nil
			}
			order, err := u.createOrder(ctx, reqs[i])
			results[i] = outcome{order: order, err: err}
			return nil
		})
	}
	_ = g.Wait()

	sub := &domain.BatchSubmission{
		Total:       len(reqs),
		FailedItems: []domain.FailedItem{},
		Orders:      []domain.Order{},
	}
	for i, r := range results {
		if r.err != nil {
			sub.Failed++
			sub.FailedItems = append(sub.FailedItems, domain.FailedItem{
				Index:   i,
				Request: reqs[i],
				Reason:  domain.ErrorKind(r.err),
				Error:   r.err.Error(),
			})
			continue
		}
		sub.Successful++
		sub.Orders = append(sub.Orders, *r.order)
	}
	sub.Elapsed = time.Since(start)

	return sub
}

func workerLimit(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func notIssued(i int, cause error) error {
	return fmt.Errorf("%w: item %d not started: %v", domain.ErrCancelled, i, cause)
}
