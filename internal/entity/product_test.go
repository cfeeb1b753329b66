package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductUnitPrice(t *testing.T) {
	p := Product{Price: 10000}
	assert.Equal(t, 10000, p.UnitPrice())

	p.DiscountedPrice = 8000
	assert.Equal(t, 8000, p.UnitPrice())

	// A discounted price above the list price is ignored.
	p.DiscountedPrice = 12000
	assert.Equal(t, 10000, p.UnitPrice())
}

func TestCartItemSubtotal(t *testing.T) {
	item := CartItem{Product: Product{Price: 10000, DiscountedPrice: 8000}, Quantity: 3}
	assert.Equal(t, 24000, item.Subtotal())
}
