package payments

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"order-service/internal/domain"
	mmysql "order-service/internal/infra/mysql"
	"order-service/internal/infra/sqlite"
	repo "order-service/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) (*Gateway, *MockProcessor) {
	t.Helper()
	db, err := sqlite.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, mmysql.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	proc := NewMockProcessor(0)
	return NewGateway(repo.NewPaymentRepository(db), proc), proc
}

func TestGateway_CreateIntent(t *testing.T) {
	ctx := context.Background()
	gw, _ := newTestGateway(t)

	handle, err := gw.CreateIntent(ctx, 5, 1, 3000, "usd")
	require.NoError(t, err)

	assert.Equal(t, uint64(5), handle.Payment.OrderID)
	assert.Equal(t, int64(3000), handle.Payment.Amount)
	assert.Equal(t, "USD", handle.Payment.Currency)
	assert.Equal(t, domain.PaymentRequiresConfirmation, handle.Payment.Status)
	assert.NotEmpty(t, handle.Payment.ExternalIntentID)
	assert.NotEmpty(t, handle.ClientSecret)

	payments, err := gw.ListByOrder(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestGateway_CreateIntent_Errors(t *testing.T) {
	ctx := context.Background()
	gw, proc := newTestGateway(t)

	_, err := gw.CreateIntent(ctx, 5, 1, 0, "USD")
	assert.ErrorIs(t, err, domain.ErrValidation)

	proc.FailNextCreate(errors.New("processor unavailable"))
	_, err = gw.CreateIntent(ctx, 5, 1, 3000, "USD")
	assert.EqualError(t, err, "processor unavailable")

	payments, err := gw.ListByOrder(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestGateway_Apply(t *testing.T) {
	ctx := context.Background()
	gw, _ := newTestGateway(t)

	handle, err := gw.CreateIntent(ctx, 5, 1, 3000, "USD")
	require.NoError(t, err)
	intentID := handle.Payment.ExternalIntentID

	tr, err := gw.Apply(ctx, intentID, domain.PaymentPending, "")
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, domain.PaymentRequiresConfirmation, tr.From)
	assert.Equal(t, domain.PaymentPending, tr.Payment.Status)

	tr, err = gw.Apply(ctx, intentID, domain.PaymentPending, "")
	require.NoError(t, err)
	assert.False(t, tr.Changed)

	tr, err = gw.Apply(ctx, intentID, domain.PaymentSucceeded, "card")
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, domain.PaymentSucceeded, tr.Payment.Status)
	assert.Equal(t, "card", tr.Payment.Method)

	// terminal: duplicates and conflicting outcomes are no-ops
	for _, outcome := range []domain.PaymentStatus{domain.PaymentSucceeded, domain.PaymentFailed, domain.PaymentPending} {
		tr, err = gw.Apply(ctx, intentID, outcome, "")
		require.NoError(t, err)
		assert.False(t, tr.Changed)
		assert.Equal(t, domain.PaymentSucceeded, tr.Payment.Status)
	}
}

func TestGateway_Apply_Errors(t *testing.T) {
	ctx := context.Background()
	gw, _ := newTestGateway(t)

	_, err := gw.Apply(ctx, "pi_unknown", domain.PaymentSucceeded, "")
	assert.ErrorIs(t, err, domain.ErrUnknownIntent)

	_, err = gw.Apply(ctx, "pi_unknown", domain.PaymentRequiresConfirmation, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGateway_Apply_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	gw, _ := newTestGateway(t)

	handle, err := gw.CreateIntent(ctx, 5, 1, 3000, "USD")
	require.NoError(t, err)

	var changed int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := gw.Apply(ctx, handle.Payment.ExternalIntentID, domain.PaymentSucceeded, "")
			if assert.NoError(t, err) {
				assert.Equal(t, domain.PaymentSucceeded, tr.Payment.Status)
				if tr.Changed {
					atomic.AddInt32(&changed, 1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), changed)
}

func TestGateway_Confirm(t *testing.T) {
	ctx := context.Background()
	gw, proc := newTestGateway(t)

	ok, err := gw.CreateIntent(ctx, 5, 1, 3000, "USD")
	require.NoError(t, err)
	declined, err := gw.CreateIntent(ctx, 6, 1, 1000, "USD")
	require.NoError(t, err)
	proc.SetOutcome(declined.Payment.ExternalIntentID, domain.PaymentFailed)

	tr, err := gw.Confirm(ctx, ok.Payment.ExternalIntentID)
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, domain.PaymentSucceeded, tr.Payment.Status)

	again, err := gw.Confirm(ctx, ok.Payment.ExternalIntentID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, tr.Payment.Status, again.Payment.Status)

	tr, err = gw.Confirm(ctx, declined.Payment.ExternalIntentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, tr.Payment.Status)

	_, err = gw.Confirm(ctx, "pi_unknown")
	assert.ErrorIs(t, err, domain.ErrUnknownIntent)
}
