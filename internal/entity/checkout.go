package entity

// CheckoutItem is one (product, quantity) pair the buyer wants to commit.
type CheckoutItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// StockCheck is the advisory availability report for one requested item.
// IsAvailable holds iff RequestedQty <= AvailableStock at read time; the
// figure can be stale by the time the checkout transaction runs.
type StockCheck struct {
	ProductID      int    `json:"product_id"`
	ProductName    string `json:"product_name"`
	RequestedQty   int    `json:"requested_qty"`
	AvailableStock int    `json:"available_stock"`
	IsAvailable    bool   `json:"is_available"`
}

// CheckoutRequest is the input to the atomic order-creation operation.
type CheckoutRequest struct {
	UserID          int            `json:"user_id"`
	Items           []CheckoutItem `json:"items"`
	ShippingAddress string         `json:"shipping_address"`
	IdempotentKey   string         `json:"-"`
}

// CheckoutResult is the tagged outcome of the order-creation operation.
// Success false means the server rejected the request with no state change;
// a transport failure is reported as an error instead, because then the
// outcome is unknown.
type CheckoutResult struct {
	OrderID int    `json:"order_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}
