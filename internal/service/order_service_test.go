package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery-service/internal/entity"
)

func seedOrder(store *memStore, userID int, orderDate time.Time, status entity.OrderStatus) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	id := store.nextID
	store.nextID++
	store.orders[id] = &entity.Order{
		ID:        id,
		UserID:    userID,
		Status:    status,
		OrderDate: orderDate,
		UpdatedAt: orderDate,
		Items: []entity.OrderItem{
			{ProductID: 1, ProductName: "Fresh Milk", Quantity: 1, UnitPrice: 10000, Subtotal: 10000},
		},
	}
	return id
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := NewOrderService(newMemStore(), nil)

	_, err := svc.GetOrder(context.Background(), 42)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListForUser_NewestFirstAndScoped(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Now()
	older := seedOrder(store, 7, now.Add(-2*time.Hour), entity.StatusProcessing)
	newer := seedOrder(store, 7, now, entity.StatusProcessing)
	seedOrder(store, 8, now.Add(-time.Hour), entity.StatusProcessing)

	svc := NewOrderService(store, nil)

	orders, err := svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer, orders[0].ID)
	assert.Equal(t, older, orders[1].ID)
}

func TestListAll_ItemsNeverNil(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	id := seedOrder(store, 7, time.Now(), entity.StatusProcessing)
	store.mu.Lock()
	store.orders[id].Items = nil // simulate a join that found nothing
	store.mu.Unlock()

	svc := NewOrderService(store, nil)

	orders, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.NotNil(t, orders[0].Items)
	assert.Empty(t, orders[0].Items)
}

func TestUpdateStatus_LegalLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	id := seedOrder(store, 7, time.Now(), entity.StatusProcessing)
	svc := NewOrderService(store, nil)

	order, err := svc.UpdateStatus(ctx, id, entity.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, order.Status)

	// The next fetch observes the transition; nothing is pushed.
	fetched, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, fetched.Status)

	listed, err := svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, entity.StatusShipped, listed[0].Status)

	order, err = svc.UpdateStatus(ctx, id, entity.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, order.Status)
}

func TestUpdateStatus_IllegalTransitionsRejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		from entity.OrderStatus
		to   entity.OrderStatus
	}{
		{name: "processing to completed skips shipped", from: entity.StatusProcessing, to: entity.StatusCompleted},
		{name: "completed is terminal", from: entity.StatusCompleted, to: entity.StatusProcessing},
		{name: "cancelled is terminal", from: entity.StatusCancelled, to: entity.StatusShipped},
		{name: "shipped cannot go back", from: entity.StatusShipped, to: entity.StatusProcessing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			id := seedOrder(store, 7, time.Now(), tc.from)
			svc := NewOrderService(store, nil)

			_, err := svc.UpdateStatus(ctx, id, tc.to)
			assert.ErrorIs(t, err, ErrIllegalTransition)

			// The rejected transition wrote nothing.
			order, err := svc.GetOrder(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.from, order.Status)
		})
	}
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	id := seedOrder(store, 7, time.Now(), entity.StatusProcessing)
	svc := NewOrderService(store, nil)

	_, err := svc.UpdateStatus(ctx, id, entity.OrderStatus("misplaced"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	id := seedOrder(store, 7, time.Now(), entity.StatusShipped)
	svc := NewOrderService(store, nil)

	order, err := svc.CancelOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, order.Status)

	// Cancelled is terminal.
	_, err = svc.CancelOrder(ctx, id)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}
