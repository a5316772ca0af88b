package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

func TestService_Get(t *testing.T) {
	store := newFlakyStore()
	h := newTestHandler(t, store)
	svc := NewService(NewRepository(store))
	ctx := context.Background()

	id := uuid.New()
	_, err := h.Handle(ctx, requestCmd(id, 250))
	require.NoError(t, err)
	_, err = h.Handle(ctx, domain.DiscardPayment{PaymentID: id, Reason: "  fraud check failed "})
	require.NoError(t, err)

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, domain.PaymentStatusDiscarded, p.Status)
	assert.Equal(t, "fraud check failed", p.DiscardReason)
	assert.Equal(t, int64(2), p.Version)

	_, err = svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestService_History(t *testing.T) {
	store := newFlakyStore()
	h := newTestHandler(t, store)
	svc := NewService(NewRepository(store))
	ctx := context.Background()

	id := uuid.New()
	_, err := h.Handle(ctx, requestCmd(id, 10))
	require.NoError(t, err)
	_, err = h.Handle(ctx, domain.CompletePayment{PaymentID: id})
	require.NoError(t, err)

	records, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for i, rec := range records {
		assert.Equal(t, int64(i+1), rec.Version)
		assert.Equal(t, id, rec.AggregateID)
	}

	_, err = svc.History(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestService_ReadFailure(t *testing.T) {
	store := newFlakyStore()
	store.readErr = errors.New("connection reset")
	svc := NewService(NewRepository(store))

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.readErr)
	assert.NotErrorIs(t, err, domain.ErrAggregateNotFound)

	_, err = svc.History(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.readErr)
}
