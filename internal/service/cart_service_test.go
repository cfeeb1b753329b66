package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery-service/internal/entity"
)

const testSession = "session-1"

func testProduct(id, price, stock int) entity.Product {
	return entity.Product{
		ID:    id,
		Name:  "Product " + string(rune('A'+id-1)),
		Price: price,
		Stock: stock,
	}
}

func newTestCart() *CartService {
	return NewCartService(newMemCartStore())
}

func TestAddItem_OutOfStockIsNoOp(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()

	cart.AddItem(ctx, testSession, testProduct(1, 10000, 0), 2)

	assert.Empty(t, cart.Items(ctx, testSession))
}

func TestAddItem_ClampsToStock(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()

	cart.AddItem(ctx, testSession, testProduct(1, 10000, 5), 8)

	items := cart.Items(ctx, testSession)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, items[0].Selected)
}

func TestAddItem_MergesAndClampsExistingEntry(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()
	p := testProduct(1, 10000, 5)

	cart.AddItem(ctx, testSession, p, 3)
	cart.AddItem(ctx, testSession, p, 4)

	items := cart.Items(ctx, testSession)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestUpdateQuantity_ClampInvariant(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		stock    int
		quantity int
		want     int
	}{
		{name: "within range", stock: 10, quantity: 4, want: 4},
		{name: "above stock", stock: 10, quantity: 15, want: 10},
		{name: "zero clamps to one", stock: 10, quantity: 0, want: 1},
		{name: "negative clamps to one", stock: 10, quantity: -3, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cart := newTestCart()
			cart.AddItem(ctx, testSession, testProduct(1, 10000, tc.stock), 2)

			cart.UpdateQuantity(ctx, testSession, 1, tc.quantity)

			items := cart.Items(ctx, testSession)
			require.Len(t, items, 1)
			assert.Equal(t, tc.want, items[0].Quantity)
		})
	}
}

func TestUpdateQuantity_AbsentProductIsNoOp(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()
	cart.AddItem(ctx, testSession, testProduct(1, 10000, 5), 2)

	cart.UpdateQuantity(ctx, testSession, 99, 3)

	items := cart.Items(ctx, testSession)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()
	cart.AddItem(ctx, testSession, testProduct(1, 10000, 5), 2)

	cart.RemoveItem(ctx, testSession, 1)
	assert.Empty(t, cart.Items(ctx, testSession))

	// Removing an id that is not present changes nothing.
	cart.RemoveItem(ctx, testSession, 1)
	cart.RemoveItem(ctx, testSession, 42)
	assert.Empty(t, cart.Items(ctx, testSession))
}

func TestSelectedTotals(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()
	cart.AddItem(ctx, testSession, testProduct(1, 10000, 5), 2) // 20000
	cart.AddItem(ctx, testSession, testProduct(2, 5000, 9), 3)  // 15000

	assert.Equal(t, 35000, cart.SelectedTotal(ctx, testSession))
	assert.Equal(t, 2, cart.SelectedItemCount(ctx, testSession))
	assert.Equal(t, 5, cart.SelectedItemsCount(ctx, testSession))

	// Toggling one off excludes it from every derived read.
	cart.ToggleSelection(ctx, testSession, 2)
	assert.Equal(t, 20000, cart.SelectedTotal(ctx, testSession))
	assert.Equal(t, 1, cart.SelectedItemCount(ctx, testSession))
	assert.Equal(t, 2, cart.SelectedItemsCount(ctx, testSession))

	cart.UnselectAll(ctx, testSession)
	assert.Equal(t, 0, cart.SelectedTotal(ctx, testSession))

	cart.SelectAll(ctx, testSession)
	assert.Equal(t, 35000, cart.SelectedTotal(ctx, testSession))
}

func TestSelectedTotal_UsesDiscountedPrice(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()

	p := testProduct(1, 10000, 5)
	p.DiscountedPrice = 8000
	cart.AddItem(ctx, testSession, p, 2)

	assert.Equal(t, 16000, cart.SelectedTotal(ctx, testSession))
}

func TestClearSelected_KeepsUnselected(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()
	cart.AddItem(ctx, testSession, testProduct(1, 10000, 5), 2)
	cart.AddItem(ctx, testSession, testProduct(2, 5000, 9), 3)
	cart.ToggleSelection(ctx, testSession, 2)

	cart.ClearSelected(ctx, testSession)

	items := cart.Items(ctx, testSession)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Product.ID)
}

func TestCart_HydratesFromDurableStore(t *testing.T) {
	ctx := context.Background()
	store := newMemCartStore()
	require.NoError(t, store.Save(ctx, testSession, []entity.CartItem{
		{Product: testProduct(1, 10000, 5), Quantity: 2, Selected: true},
	}))

	// A fresh service instance stands in for an app restart.
	cart := NewCartService(store)

	items := cart.Items(ctx, testSession)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 20000, cart.SelectedTotal(ctx, testSession))
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	cart := newTestCart()

	cart.AddItem(ctx, "session-a", testProduct(1, 10000, 5), 2)
	cart.AddItem(ctx, "session-b", testProduct(2, 5000, 9), 1)

	require.Len(t, cart.Items(ctx, "session-a"), 1)
	require.Len(t, cart.Items(ctx, "session-b"), 1)
	assert.Equal(t, 1, cart.Items(ctx, "session-a")[0].Product.ID)
	assert.Equal(t, 2, cart.Items(ctx, "session-b")[0].Product.ID)
}
