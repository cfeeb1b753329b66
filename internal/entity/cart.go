package entity

// CartItem is one draft line in a session cart. Product is a full snapshot
// taken at add time, so the cart keeps working against stale catalog data;
// the authoritative stock check happens at checkout, not here.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Selected bool    `json:"selected"`
}

// Subtotal is quantity times the snapshot unit price.
func (c *CartItem) Subtotal() int {
	return c.Quantity * c.Product.UnitPrice()
}
